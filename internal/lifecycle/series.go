package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

// NewSeries turns task into the first instance of a new recurring series, or
// of a routine when routine is set. The due date moves to the rule's first
// occurrence.
func (e *Engine) NewSeries(task models.Task, rule models.RecurrenceRule, routine bool) (models.Task, error) {
	normalized, err := models.NewRecurrenceRule(rule)
	if err != nil {
		return models.Task{}, err
	}
	if normalized.IsZero() {
		return models.Task{}, fmt.Errorf("%w: a series needs a repeating rule", apperrors.ErrMalformedRule)
	}
	if task.Status != "" && task.Status != models.StatusPending {
		return models.Task{}, transitionErr("start series", task, apperrors.ErrInvalidState)
	}
	if task.GroupID() != "" {
		return models.Task{}, transitionErr("start series", task,
			fmt.Errorf("%w: task already belongs to series %s", apperrors.ErrInvalidState, task.GroupID()))
	}

	first, err := utils.FirstOccurrence(normalized)
	if errors.Is(err, apperrors.ErrRecurrenceExhausted) {
		return models.Task{}, fmt.Errorf("%w: the end condition leaves no occurrences", apperrors.ErrMalformedRule)
	}
	if err != nil {
		return models.Task{}, err
	}

	now := e.now()
	out := task.Clone()
	if out.ID == "" {
		out.ID = e.newID()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.Status = models.StatusPending
	out.DueDate = models.DateOf(first)
	out.OriginalDueDate = nil
	out.RecurrenceRule = &normalized
	out.OccurrenceIndex = 1
	if routine {
		out.RoutineGroupID = e.newID()
		out.IsRoutineActive = true
	} else {
		out.RecurrenceGroupID = e.newID()
	}

	logger.Debug("series started", "id", out.ID, "group", out.GroupID(), "rule", normalized.Describe())
	return out, nil
}

// RegenerateResult is the outcome of a regeneration check for one series.
// Spawned is nil when the series needs nothing.
type RegenerateResult struct {
	Source  models.Task
	Spawned *models.Task
}

func (r RegenerateResult) Changes() models.ChangeSet {
	if r.Spawned == nil {
		return models.ChangeSet{}
	}
	return models.ChangeSet{Upsert: []models.Task{r.Source, *r.Spawned}}
}

// Regenerate inspects the instances of one series and returns the next
// instance to create when the latest one is finished and nothing follows it
// yet. Running it again on its own output is a no-op.
func (e *Engine) Regenerate(groupTasks []models.Task) (RegenerateResult, error) {
	latest, ok := latestInstance(groupTasks)
	if !ok {
		return RegenerateResult{}, nil
	}

	switch latest.Status {
	case models.StatusCompleted, models.StatusNotDone:
	case models.StatusPending, models.StatusPostponed:
		return RegenerateResult{}, nil
	default:
		return RegenerateResult{}, fmt.Errorf("%w: task %s has unknown status %q", apperrors.ErrInvalidState, latest.ID, latest.Status)
	}
	if !latest.IsSeriesActive() || latest.SpawnedTaskID != "" {
		return RegenerateResult{}, nil
	}

	spawned, err := e.nextInstance(latest, e.anchor(latest), groupTasks)
	if err != nil || spawned == nil {
		return RegenerateResult{}, err
	}

	src := latest.Clone()
	src.SpawnedTaskID = spawned.ID
	logger.Debug("series regenerated", "group", latest.GroupID(), "from", latest.ID, "spawned", spawned.ID)
	return RegenerateResult{Source: src, Spawned: spawned}, nil
}

// Sweep runs Regenerate over every series in the source.
func (e *Engine) Sweep() ([]RegenerateResult, error) {
	tasks, err := e.source.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	groups := make(map[string][]models.Task)
	for _, t := range tasks {
		if id := t.GroupID(); id != "" {
			groups[id] = append(groups[id], t)
		}
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []RegenerateResult
	for _, id := range ids {
		res, err := e.Regenerate(groups[id])
		if err != nil {
			logger.Warn("regeneration failed", "group", id, "error", err)
			continue
		}
		if res.Spawned != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// anchor is the day the next occurrence is computed from. Recurring series
// follow their schedule; routines restart from the day they were finished,
// but never from before the finished instance's own due day.
func (e *Engine) anchor(t models.Task) time.Time {
	if !t.IsRoutine() {
		if t.OriginalDueDate != nil {
			return *t.OriginalDueDate
		}
		return t.DueDate
	}
	var at time.Time
	switch {
	case t.CompletedAt != nil:
		at = *t.CompletedAt
	case t.NotDoneAt != nil:
		at = *t.NotDoneAt
	default:
		at = e.now()
	}
	if models.DayBefore(at, t.DueDate) {
		at = t.DueDate
	}
	return at
}

// nextInstance builds the instance following prev, or returns nil when the
// series is exhausted or the instance already exists among siblings.
func (e *Engine) nextInstance(prev models.Task, anchor time.Time, siblings []models.Task) (*models.Task, error) {
	index := prev.OccurrenceIndex
	if index < 1 {
		index = 1
	}
	for _, s := range siblings {
		if s.ID != prev.ID && s.DeletedAt == nil && s.OccurrenceIndex == index+1 {
			logger.Debug("next instance already exists", "group", prev.GroupID(), "id", s.ID, "index", index+1)
			return nil, nil
		}
	}

	due, err := utils.NextOccurrence(*prev.RecurrenceRule, anchor, index)
	if err != nil {
		if errors.Is(err, apperrors.ErrRecurrenceExhausted) {
			logger.Debug("series exhausted", "group", prev.GroupID(), "reason", err)
			return nil, nil
		}
		return nil, err
	}

	tmpl := models.Task{RecurrenceRule: prev.RecurrenceRule, DueTime: prev.DueTime}.Clone()
	next := models.Task{
		ID:                e.newID(),
		Title:             prev.Title,
		Priority:          prev.Priority,
		DueDate:           models.DateOf(due),
		DueTime:           tmpl.DueTime,
		Status:            models.StatusPending,
		RecurrenceRule:    tmpl.RecurrenceRule,
		RecurrenceGroupID: prev.RecurrenceGroupID,
		RoutineGroupID:    prev.RoutineGroupID,
		IsRoutineActive:   prev.IsRoutineActive,
		OccurrenceIndex:   index + 1,
		CreatedAt:         e.now(),
	}
	return &next, nil
}

// latestInstance picks the live instance with the highest occurrence index.
// A postponed archive shares its index with its child, so the child wins.
func latestInstance(tasks []models.Task) (models.Task, bool) {
	var best models.Task
	found := false
	for _, t := range tasks {
		if t.DeletedAt != nil {
			continue
		}
		switch {
		case !found:
		case t.OccurrenceIndex > best.OccurrenceIndex:
		case t.OccurrenceIndex == best.OccurrenceIndex && best.Status == models.StatusPostponed && t.Status != models.StatusPostponed:
		default:
			continue
		}
		best, found = t, true
	}
	return best, found
}
