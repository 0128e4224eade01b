package lifecycle

import (
	"fmt"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
)

type CompleteOptions struct {
	// Reward overrides the priority based reward when set.
	Reward *int
}

type CompleteResult struct {
	Task    models.Task
	Spawned *models.Task
}

func (r CompleteResult) Changes() models.ChangeSet {
	cs := models.ChangeSet{Upsert: []models.Task{r.Task}}
	if r.Spawned != nil {
		cs.Upsert = append(cs.Upsert, *r.Spawned)
	}
	return cs
}

// Complete marks a pending task completed, awards its points and, for an
// active series, generates the next instance.
func (e *Engine) Complete(task models.Task, opts CompleteOptions) (CompleteResult, error) {
	const op = "complete"
	if err := task.Validate(); err != nil {
		return CompleteResult{}, transitionErr(op, task, err)
	}
	if task.Status != models.StatusPending {
		return CompleteResult{}, transitionErr(op, task, apperrors.ErrInvalidState)
	}

	now := e.now()
	reward := e.scoring.reward(task.Priority)
	if opts.Reward != nil {
		reward = *opts.Reward
	}

	done := task.Clone()
	done.Status = models.StatusCompleted
	done.CompletedAt = &now
	done.PointsEarned += reward
	done.TransitionPoints = reward

	var spawned *models.Task
	if done.IsSeriesActive() {
		siblings, err := e.source.ListTasksByGroup(done.GroupID())
		if err != nil {
			return CompleteResult{}, fmt.Errorf("failed to load series %s: %w", done.GroupID(), err)
		}
		spawned, err = e.nextInstance(done, e.anchor(done), siblings)
		if err != nil {
			return CompleteResult{}, transitionErr(op, task, err)
		}
		if spawned != nil {
			done.SpawnedTaskID = spawned.ID
		}
	}

	logger.Debug("task completed", "id", done.ID, "points", reward, "spawned", done.SpawnedTaskID)
	return CompleteResult{Task: done, Spawned: spawned}, nil
}
