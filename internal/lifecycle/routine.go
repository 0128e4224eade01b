package lifecycle

import (
	"fmt"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
)

// RoutineResult is the outcome of pausing or resuming a routine. Updated
// holds every live instance of the group; Spawned is the instance created
// when a resumed routine had nothing pending.
type RoutineResult struct {
	GroupID string
	Active  bool
	Updated []models.Task
	Spawned *models.Task
}

func (r RoutineResult) Changes() models.ChangeSet {
	cs := models.ChangeSet{Upsert: append([]models.Task(nil), r.Updated...)}
	if r.Spawned != nil {
		cs.Upsert = append(cs.Upsert, *r.Spawned)
	}
	return cs
}

// SetRoutineActive pauses or resumes the routine task belongs to. A paused
// routine keeps its instances but generates no new ones.
func (e *Engine) SetRoutineActive(task models.Task, active bool) (RoutineResult, error) {
	op := "pause routine"
	if active {
		op = "resume routine"
	}
	if !task.IsRoutine() {
		return RoutineResult{}, transitionErr(op, task,
			fmt.Errorf("%w: task is not part of a routine", apperrors.ErrInvalidState))
	}

	group, err := e.source.ListTasksByGroup(task.RoutineGroupID)
	if err != nil {
		return RoutineResult{}, fmt.Errorf("failed to load routine %s: %w", task.RoutineGroupID, err)
	}
	if len(group) == 0 {
		group = []models.Task{task}
	}

	changed := false
	updated := make([]models.Task, 0, len(group))
	for _, t := range group {
		if t.DeletedAt != nil {
			continue
		}
		if t.IsRoutineActive != active {
			changed = true
		}
		c := t.Clone()
		c.IsRoutineActive = active
		updated = append(updated, c)
	}
	if !changed {
		state := "paused"
		if active {
			state = "active"
		}
		return RoutineResult{}, transitionErr(op, task,
			fmt.Errorf("%w: routine is already %s", apperrors.ErrInvalidState, state))
	}

	res := RoutineResult{GroupID: task.RoutineGroupID, Active: active, Updated: updated}
	if active {
		regen, err := e.Regenerate(updated)
		if err != nil {
			return RoutineResult{}, transitionErr(op, task, err)
		}
		if regen.Spawned != nil {
			for i := range res.Updated {
				if res.Updated[i].ID == regen.Source.ID {
					res.Updated[i] = regen.Source
				}
			}
			res.Spawned = regen.Spawned
		}
	}

	logger.Debug("routine state changed", "group", res.GroupID, "active", active, "instances", len(updated))
	return res, nil
}
