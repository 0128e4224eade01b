package lifecycle

import (
	"fmt"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
)

type PostponeOptions struct {
	// Penalty overrides the configured postpone penalty when set.
	Penalty *int
}

// PostponeResult holds the archived original and the pending child that
// replaces it on the new date.
type PostponeResult struct {
	Archived models.Task
	Child    models.Task
}

func (r PostponeResult) Changes() models.ChangeSet {
	return models.ChangeSet{Upsert: []models.Task{r.Archived, r.Child}}
}

// Postpone moves a pending task to a later day. The original is archived as
// postponed and a child carrying the same history and points continues the
// record on newDate.
func (e *Engine) Postpone(task models.Task, newDate time.Time, reason string, opts PostponeOptions) (PostponeResult, error) {
	const op = "postpone"
	if err := task.Validate(); err != nil {
		return PostponeResult{}, transitionErr(op, task, err)
	}
	if task.Status != models.StatusPending {
		return PostponeResult{}, transitionErr(op, task, apperrors.ErrInvalidState)
	}
	if !models.DayAfter(newDate, task.DueDate) {
		return PostponeResult{}, transitionErr(op, task, fmt.Errorf("%w: new date %s is not after due date %s",
			apperrors.ErrInvalidState, newDate.Format("2006-01-02"), task.DueDate.Format("2006-01-02")))
	}

	penalty := e.scoring.PostponePenalty
	if opts.Penalty != nil {
		penalty = *opts.Penalty
	}
	penalty = negative(penalty)

	now := e.now()
	archived := task.Clone()
	archived.PostponeHistory = append(archived.PostponeHistory, models.PostponeEntry{
		From:           task.DueDate,
		To:             models.DateOf(newDate),
		PostponedAt:    now,
		Reason:         reason,
		PenaltyApplied: penalty,
	})
	archived.PostponeCount++
	archived.PointsEarned += penalty
	archived.Status = models.StatusPostponed

	child := archived.Clone()
	child.ID = e.newID()
	child.Status = models.StatusPending
	child.DueDate = models.DateOf(newDate)
	if task.OriginalDueDate == nil {
		orig := task.DueDate
		child.OriginalDueDate = &orig
	}
	child.ParentTaskID = task.ID
	child.SpawnedTaskID = ""
	child.TransitionPoints = 0
	child.CreatedAt = now

	archived.SpawnedTaskID = child.ID

	logger.Debug("task postponed", "id", archived.ID, "child", child.ID, "to", child.DueDate.Format("2006-01-02"), "points", penalty)
	return PostponeResult{Archived: archived, Child: child}, nil
}
