package lifecycle

import (
	"fmt"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
)

// UndoResult holds the task restored to pending and the id of the task the
// undone transition had produced, which must be deleted.
type UndoResult struct {
	Task          models.Task
	DeletedTaskID string
}

func (r UndoResult) Changes() models.ChangeSet {
	cs := models.ChangeSet{Upsert: []models.Task{r.Task}}
	if r.DeletedTaskID != "" {
		cs.Delete = []string{r.DeletedTaskID}
	}
	return cs
}

// Undo reverses the last transition of task according to its status.
func (e *Engine) Undo(task models.Task) (UndoResult, error) {
	switch task.Status {
	case models.StatusCompleted:
		return e.UndoComplete(task)
	case models.StatusNotDone:
		return e.UndoNotDone(task)
	case models.StatusPostponed:
		return e.UndoPostpone(task)
	case models.StatusPending:
		return UndoResult{}, transitionErr("undo", task, apperrors.ErrNothingToUndo)
	default:
		return UndoResult{}, transitionErr("undo", task, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidState, task.Status))
	}
}

// UndoComplete returns a completed task to pending, takes back its reward and
// removes the next instance it generated.
func (e *Engine) UndoComplete(task models.Task) (UndoResult, error) {
	const op = "undo complete"
	if err := e.checkUndo(op, task, models.StatusCompleted); err != nil {
		return UndoResult{}, err
	}

	out := task.Clone()
	out.Status = models.StatusPending
	out.CompletedAt = nil
	out.PointsEarned -= out.TransitionPoints
	out.TransitionPoints = 0
	out.SpawnedTaskID = ""

	logger.Debug("completion undone", "id", out.ID, "deleted", task.SpawnedTaskID)
	return UndoResult{Task: out, DeletedTaskID: task.SpawnedTaskID}, nil
}

// UndoNotDone returns a not-done task to pending and refunds its penalty.
func (e *Engine) UndoNotDone(task models.Task) (UndoResult, error) {
	const op = "undo not done"
	if err := e.checkUndo(op, task, models.StatusNotDone); err != nil {
		return UndoResult{}, err
	}

	out := task.Clone()
	out.Status = models.StatusPending
	out.NotDoneAt = nil
	out.NotDoneReason = ""
	out.PointsEarned -= out.TransitionPoints
	out.TransitionPoints = 0
	out.SpawnedTaskID = ""

	logger.Debug("not done undone", "id", out.ID, "deleted", task.SpawnedTaskID)
	return UndoResult{Task: out, DeletedTaskID: task.SpawnedTaskID}, nil
}

// UndoPostpone pops the last postpone entry, refunds its penalty and removes
// the child created for the new date.
func (e *Engine) UndoPostpone(task models.Task) (UndoResult, error) {
	const op = "undo postpone"
	if err := e.checkUndo(op, task, models.StatusPostponed); err != nil {
		return UndoResult{}, err
	}

	last, _ := task.LastPostpone()
	out := task.Clone()
	out.PostponeHistory = out.PostponeHistory[:len(out.PostponeHistory)-1]
	if len(out.PostponeHistory) == 0 {
		out.PostponeHistory = nil
	}
	out.PostponeCount--
	out.PointsEarned -= last.PenaltyApplied
	out.Status = models.StatusPending
	out.SpawnedTaskID = ""

	logger.Debug("postpone undone", "id", out.ID, "deleted", task.SpawnedTaskID, "points", -last.PenaltyApplied)
	return UndoResult{Task: out, DeletedTaskID: task.SpawnedTaskID}, nil
}

// checkUndo validates the task and refuses to discard a spawned task the user
// has already acted on.
func (e *Engine) checkUndo(op string, task models.Task, want models.Status) error {
	if err := task.Validate(); err != nil {
		return transitionErr(op, task, err)
	}
	if task.Status != want {
		if task.Status == models.StatusPending {
			return transitionErr(op, task, apperrors.ErrNothingToUndo)
		}
		return transitionErr(op, task, apperrors.ErrInvalidState)
	}
	if task.SpawnedTaskID == "" {
		return nil
	}

	spawned, ok, err := e.findTask(task.SpawnedTaskID)
	if err != nil {
		return fmt.Errorf("failed to load spawned task %s: %w", task.SpawnedTaskID, err)
	}
	if ok && spawned.Status != models.StatusPending {
		return transitionErr(op, task, fmt.Errorf("%w: spawned task %s is already %s",
			apperrors.ErrInvalidState, spawned.ID, spawned.Status))
	}
	return nil
}
