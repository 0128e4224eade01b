package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusNotDone   Status = "not_done"
	StatusPostponed Status = "postponed"
)

// ParseStatus converts a stored status string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusNotDone, StatusPostponed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// IsTerminal reports whether no further forward transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusNotDone, StatusPostponed:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// TimeOfDay is an optional wall-clock time attached to a due date.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

type PostponeEntry struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	PostponedAt    time.Time `json:"postponedAt"`
	Reason         string    `json:"reason,omitempty"`
	PenaltyApplied int       `json:"penaltyApplied"`
}

// UnmarshalJSON reads entries written before penalties were stored per entry
// as carrying the legacy penalty.
func (e *PostponeEntry) UnmarshalJSON(data []byte) error {
	type entry PostponeEntry
	var raw struct {
		entry
		PenaltyApplied *int `json:"penaltyApplied"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = PostponeEntry(raw.entry)
	if raw.PenaltyApplied != nil {
		e.PenaltyApplied = *raw.PenaltyApplied
	} else {
		e.PenaltyApplied = constants.LegacyPostponePenalty
	}
	return nil
}

type Task struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Priority          int             `json:"priority"`
	DueDate           time.Time       `json:"dueDate"`
	DueTime           *TimeOfDay      `json:"dueTime,omitempty"`
	Status            Status          `json:"status"`
	OriginalDueDate   *time.Time      `json:"originalDueDate,omitempty"`
	PostponeCount     int             `json:"postponeCount"`
	PostponeHistory   []PostponeEntry `json:"postponeHistory"`
	PointsEarned      int             `json:"pointsEarned"`
	TransitionPoints  int             `json:"transitionPoints,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	NotDoneAt         *time.Time      `json:"notDoneAt,omitempty"`
	NotDoneReason     string          `json:"notDoneReason,omitempty"`
	RecurrenceRule    *RecurrenceRule `json:"recurrenceRule,omitempty"`
	RecurrenceGroupID string          `json:"recurrenceGroupId,omitempty"`
	RoutineGroupID    string          `json:"routineGroupId,omitempty"`
	IsRoutineActive   bool            `json:"isRoutineActive"`
	OccurrenceIndex   int             `json:"occurrenceIndex,omitempty"`
	ParentTaskID      string          `json:"parentTaskId,omitempty"`
	SpawnedTaskID     string          `json:"spawnedTaskId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	DeletedAt         *time.Time      `json:"deletedAt,omitempty"`
}

// GroupID returns the series id the task belongs to, if any.
func (t Task) GroupID() string {
	if t.RoutineGroupID != "" {
		return t.RoutineGroupID
	}
	return t.RecurrenceGroupID
}

// IsRoutine reports whether the task is an instance of a routine series.
func (t Task) IsRoutine() bool {
	return t.RoutineGroupID != ""
}

// IsSeriesActive reports whether completing this instance should produce a
// next one.
func (t Task) IsSeriesActive() bool {
	if t.RecurrenceRule == nil || t.RecurrenceRule.IsZero() {
		return false
	}
	if t.IsRoutine() {
		return t.IsRoutineActive
	}
	return t.RecurrenceGroupID != ""
}

// DueAt returns the moment the task falls due. Without a due time the task is
// due at the end of its due day.
func (t Task) DueAt() time.Time {
	day := DateOf(t.DueDate)
	if t.DueTime == nil {
		return day.AddDate(0, 0, 1)
	}
	return day.Add(time.Duration(t.DueTime.Hour)*time.Hour + time.Duration(t.DueTime.Minute)*time.Minute)
}

// PenaltyTotal sums the penalties recorded in the postpone history.
func (t Task) PenaltyTotal() int {
	total := 0
	for _, e := range t.PostponeHistory {
		total += e.PenaltyApplied
	}
	return total
}

// LastPostpone returns the most recent postpone entry.
func (t Task) LastPostpone() (PostponeEntry, bool) {
	if len(t.PostponeHistory) == 0 {
		return PostponeEntry{}, false
	}
	return t.PostponeHistory[len(t.PostponeHistory)-1], true
}

// Clone returns a deep copy of the task so that the copy can be changed
// without affecting the original.
func (t Task) Clone() Task {
	out := t
	if t.DueTime != nil {
		v := *t.DueTime
		out.DueTime = &v
	}
	out.OriginalDueDate = cloneTime(t.OriginalDueDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.NotDoneAt = cloneTime(t.NotDoneAt)
	out.DeletedAt = cloneTime(t.DeletedAt)
	if t.PostponeHistory != nil {
		out.PostponeHistory = append([]PostponeEntry(nil), t.PostponeHistory...)
	}
	if t.RecurrenceRule != nil {
		r := t.RecurrenceRule.clone()
		out.RecurrenceRule = &r
	}
	return out
}

// Validate checks the record invariants the lifecycle engine relies on.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: task id cannot be empty", apperrors.ErrInvalidState)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: task %s has no due date", apperrors.ErrInvalidState, t.ID)
	}
	if t.PostponeCount != len(t.PostponeHistory) {
		return fmt.Errorf("%w: task %s postpone count %d does not match history length %d",
			apperrors.ErrInvalidState, t.ID, t.PostponeCount, len(t.PostponeHistory))
	}
	for i, e := range t.PostponeHistory {
		if e.To.IsZero() {
			return fmt.Errorf("%w: task %s postpone entry %d has no target date", apperrors.ErrInvalidState, t.ID, i)
		}
	}

	switch t.Status {
	case StatusPending:
		if t.CompletedAt != nil || t.NotDoneAt != nil {
			return fmt.Errorf("%w: pending task %s carries a completion timestamp", apperrors.ErrInvalidState, t.ID)
		}
	case StatusCompleted:
		if t.CompletedAt == nil {
			return fmt.Errorf("%w: completed task %s has no completedAt", apperrors.ErrInvalidState, t.ID)
		}
		if t.NotDoneAt != nil {
			return fmt.Errorf("%w: completed task %s also has notDoneAt", apperrors.ErrInvalidState, t.ID)
		}
	case StatusNotDone:
		if t.NotDoneAt == nil {
			return fmt.Errorf("%w: not-done task %s has no notDoneAt", apperrors.ErrInvalidState, t.ID)
		}
		if t.CompletedAt != nil {
			return fmt.Errorf("%w: not-done task %s also has completedAt", apperrors.ErrInvalidState, t.ID)
		}
	case StatusPostponed:
		if len(t.PostponeHistory) == 0 {
			return fmt.Errorf("%w: postponed task %s has no postpone history", apperrors.ErrInvalidState, t.ID)
		}
		if t.CompletedAt != nil || t.NotDoneAt != nil {
			return fmt.Errorf("%w: postponed task %s carries a completion timestamp", apperrors.ErrInvalidState, t.ID)
		}
	default:
		return fmt.Errorf("%w: task %s has unknown status %q", apperrors.ErrInvalidState, t.ID, t.Status)
	}
	return nil
}

// ChangeSet is the task graph produced by one lifecycle operation. Storage
// providers persist it as a single unit of work.
type ChangeSet struct {
	Upsert []Task
	Delete []string
}

// IsEmpty reports whether the change set has nothing to persist.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Upsert) == 0 && len(c.Delete) == 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
