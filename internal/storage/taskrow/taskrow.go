// Package taskrow maps models.Task to the flat column layout shared by the
// SQL backends. Timestamps are stored as RFC 3339 text; the postpone history
// and recurrence rule are stored as JSON documents.
package taskrow

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/cadence/internal/models"
)

// Columns lists the task columns in scan and insert order.
var Columns = []string{
	"id", "title", "priority", "due_date", "due_time", "status",
	"original_due_date", "postpone_count", "postpone_history",
	"points_earned", "transition_points", "completed_at", "not_done_at",
	"not_done_reason", "recurrence_rule", "recurrence_group_id",
	"routine_group_id", "is_routine_active", "occurrence_index",
	"parent_task_id", "spawned_task_id", "created_at", "deleted_at",
}

// Row is the storage shape of a task.
type Row struct {
	ID                string
	Title             string
	Priority          int
	DueDate           string
	DueTime           sql.NullString
	Status            string
	OriginalDueDate   sql.NullString
	PostponeCount     int
	PostponeHistory   string
	PointsEarned      int
	TransitionPoints  int
	CompletedAt       sql.NullString
	NotDoneAt         sql.NullString
	NotDoneReason     string
	RecurrenceRule    sql.NullString
	RecurrenceGroupID string
	RoutineGroupID    string
	IsRoutineActive   bool
	OccurrenceIndex   int
	ParentTaskID      string
	SpawnedTaskID     string
	CreatedAt         string
	DeletedAt         sql.NullString
}

// SelectList returns the column list for a SELECT statement.
func SelectList() string {
	return strings.Join(Columns, ", ")
}

// Placeholders returns n bind parameters in the given style: "?" for SQLite,
// "$" for PostgreSQL.
func Placeholders(style string) string {
	out := make([]string, len(Columns))
	for i := range Columns {
		if style == "$" {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return strings.Join(out, ", ")
}

// UpsertAssignments returns the SET clause of an ON CONFLICT(id) DO UPDATE.
func UpsertAssignments() string {
	out := make([]string, 0, len(Columns)-1)
	for _, c := range Columns[1:] {
		out = append(out, c+" = excluded."+c)
	}
	return strings.Join(out, ", ")
}

// Dest returns scan destinations in column order.
func (r *Row) Dest() []any {
	return []any{
		&r.ID, &r.Title, &r.Priority, &r.DueDate, &r.DueTime, &r.Status,
		&r.OriginalDueDate, &r.PostponeCount, &r.PostponeHistory,
		&r.PointsEarned, &r.TransitionPoints, &r.CompletedAt, &r.NotDoneAt,
		&r.NotDoneReason, &r.RecurrenceRule, &r.RecurrenceGroupID,
		&r.RoutineGroupID, &r.IsRoutineActive, &r.OccurrenceIndex,
		&r.ParentTaskID, &r.SpawnedTaskID, &r.CreatedAt, &r.DeletedAt,
	}
}

// Args returns bind arguments in column order.
func (r Row) Args() []any {
	return []any{
		r.ID, r.Title, r.Priority, r.DueDate, r.DueTime, r.Status,
		r.OriginalDueDate, r.PostponeCount, r.PostponeHistory,
		r.PointsEarned, r.TransitionPoints, r.CompletedAt, r.NotDoneAt,
		r.NotDoneReason, r.RecurrenceRule, r.RecurrenceGroupID,
		r.RoutineGroupID, r.IsRoutineActive, r.OccurrenceIndex,
		r.ParentTaskID, r.SpawnedTaskID, r.CreatedAt, r.DeletedAt,
	}
}

// FromTask encodes a task for storage.
func FromTask(t models.Task) (Row, error) {
	history := t.PostponeHistory
	if history == nil {
		history = []models.PostponeEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return Row{}, fmt.Errorf("failed to marshal postpone history: %w", err)
	}

	r := Row{
		ID:                t.ID,
		Title:             t.Title,
		Priority:          t.Priority,
		DueDate:           formatTime(t.DueDate),
		Status:            string(t.Status),
		OriginalDueDate:   nullTime(t.OriginalDueDate),
		PostponeCount:     t.PostponeCount,
		PostponeHistory:   string(historyJSON),
		PointsEarned:      t.PointsEarned,
		TransitionPoints:  t.TransitionPoints,
		CompletedAt:       nullTime(t.CompletedAt),
		NotDoneAt:         nullTime(t.NotDoneAt),
		NotDoneReason:     t.NotDoneReason,
		RecurrenceGroupID: t.RecurrenceGroupID,
		RoutineGroupID:    t.RoutineGroupID,
		IsRoutineActive:   t.IsRoutineActive,
		OccurrenceIndex:   t.OccurrenceIndex,
		ParentTaskID:      t.ParentTaskID,
		SpawnedTaskID:     t.SpawnedTaskID,
		CreatedAt:         formatTime(t.CreatedAt),
		DeletedAt:         nullTime(t.DeletedAt),
	}
	if t.DueTime != nil {
		r.DueTime = sql.NullString{String: t.DueTime.String(), Valid: true}
	}
	if t.RecurrenceRule != nil {
		ruleJSON, err := json.Marshal(t.RecurrenceRule)
		if err != nil {
			return Row{}, fmt.Errorf("failed to marshal recurrence rule: %w", err)
		}
		r.RecurrenceRule = sql.NullString{String: string(ruleJSON), Valid: true}
	}
	return r, nil
}

// Task decodes the row.
func (r Row) Task() (models.Task, error) {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}

	t := models.Task{
		ID:                r.ID,
		Title:             r.Title,
		Priority:          r.Priority,
		Status:            status,
		PostponeCount:     r.PostponeCount,
		PointsEarned:      r.PointsEarned,
		TransitionPoints:  r.TransitionPoints,
		NotDoneReason:     r.NotDoneReason,
		RecurrenceGroupID: r.RecurrenceGroupID,
		RoutineGroupID:    r.RoutineGroupID,
		IsRoutineActive:   r.IsRoutineActive,
		OccurrenceIndex:   r.OccurrenceIndex,
		ParentTaskID:      r.ParentTaskID,
		SpawnedTaskID:     r.SpawnedTaskID,
	}

	if t.DueDate, err = parseTime(r.DueDate); err != nil {
		return models.Task{}, fmt.Errorf("task %s: invalid due_date: %w", r.ID, err)
	}
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return models.Task{}, fmt.Errorf("task %s: invalid created_at: %w", r.ID, err)
	}
	for _, f := range []struct {
		name string
		src  sql.NullString
		dst  **time.Time
	}{
		{"original_due_date", r.OriginalDueDate, &t.OriginalDueDate},
		{"completed_at", r.CompletedAt, &t.CompletedAt},
		{"not_done_at", r.NotDoneAt, &t.NotDoneAt},
		{"deleted_at", r.DeletedAt, &t.DeletedAt},
	} {
		if !f.src.Valid {
			continue
		}
		v, err := parseTime(f.src.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s: invalid %s: %w", r.ID, f.name, err)
		}
		*f.dst = &v
	}

	if r.DueTime.Valid && r.DueTime.String != "" {
		tod, err := models.ParseTimeOfDay(r.DueTime.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
		}
		t.DueTime = &tod
	}

	if r.PostponeHistory != "" {
		if err := json.Unmarshal([]byte(r.PostponeHistory), &t.PostponeHistory); err != nil {
			return models.Task{}, fmt.Errorf("task %s: invalid postpone_history: %w", r.ID, err)
		}
		if len(t.PostponeHistory) == 0 {
			t.PostponeHistory = nil
		}
	}

	if r.RecurrenceRule.Valid && r.RecurrenceRule.String != "" {
		var rule models.RecurrenceRule
		if err := json.Unmarshal([]byte(r.RecurrenceRule.String), &rule); err != nil {
			return models.Task{}, fmt.Errorf("task %s: invalid recurrence_rule: %w", r.ID, err)
		}
		t.RecurrenceRule = &rule
	}

	return t, nil
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Scan reads one task from s.
func Scan(s Scanner) (models.Task, error) {
	var r Row
	if err := s.Scan(r.Dest()...); err != nil {
		return models.Task{}, err
	}
	return r.Task()
}

// ScanAll drains rows into tasks and closes them.
func ScanAll(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
