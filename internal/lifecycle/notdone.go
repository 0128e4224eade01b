package lifecycle

import (
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
)

type NotDoneOptions struct {
	// Penalty overrides the configured not-done penalty when set.
	Penalty *int
}

type NotDoneResult struct {
	Task models.Task
}

func (r NotDoneResult) Changes() models.ChangeSet {
	return models.ChangeSet{Upsert: []models.Task{r.Task}}
}

// MarkNotDone records that a pending task was not done and applies the
// penalty. The next instance of a series is left to Regenerate.
func (e *Engine) MarkNotDone(task models.Task, reason string, opts NotDoneOptions) (NotDoneResult, error) {
	const op = "mark not done"
	if err := task.Validate(); err != nil {
		return NotDoneResult{}, transitionErr(op, task, err)
	}
	if task.Status != models.StatusPending {
		return NotDoneResult{}, transitionErr(op, task, apperrors.ErrInvalidState)
	}

	penalty := e.scoring.NotDonePenalty
	if opts.Penalty != nil {
		penalty = *opts.Penalty
	}
	penalty = negative(penalty)

	now := e.now()
	out := task.Clone()
	out.Status = models.StatusNotDone
	out.NotDoneAt = &now
	out.NotDoneReason = reason
	out.PointsEarned += penalty
	out.TransitionPoints = penalty

	logger.Debug("task marked not done", "id", out.ID, "points", penalty)
	return NotDoneResult{Task: out}, nil
}
