package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage/taskrow"
)

var (
	selectTasks = "SELECT " + taskrow.SelectList() + " FROM tasks"
	upsertTask  = "INSERT INTO tasks (" + taskrow.SelectList() + ") VALUES (" + taskrow.Placeholders("?") +
		") ON CONFLICT(id) DO UPDATE SET " + taskrow.UpsertAssignments()
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) AddTask(task models.Task) error {
	return s.UpdateTask(task)
}

func (s *Store) GetTask(id string) (models.Task, error) {
	row := s.db.QueryRow(selectTasks+" WHERE id = ? AND deleted_at IS NULL", id)
	t, err := taskrow.Scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
		}
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) ListTasks() ([]models.Task, error) {
	rows, err := s.db.Query(selectTasks + " WHERE deleted_at IS NULL ORDER BY due_date, occurrence_index, id")
	if err != nil {
		return nil, err
	}
	return taskrow.ScanAll(rows)
}

func (s *Store) ListTasksByGroup(groupID string) ([]models.Task, error) {
	rows, err := s.db.Query(selectTasks+`
		WHERE deleted_at IS NULL AND (recurrence_group_id = ? OR routine_group_id = ?)
		ORDER BY occurrence_index, due_date, id`, groupID, groupID)
	if err != nil {
		return nil, err
	}
	return taskrow.ScanAll(rows)
}

func (s *Store) ListAllTasksIncludingDeleted() ([]models.Task, error) {
	rows, err := s.db.Query(selectTasks + " ORDER BY due_date, occurrence_index, id")
	if err != nil {
		return nil, err
	}
	return taskrow.ScanAll(rows)
}

func (s *Store) UpdateTask(task models.Task) error {
	return upsert(s.db, task)
}

// Apply persists a lifecycle change set in one transaction.
func (s *Store) Apply(cs models.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range cs.Upsert {
		if err := upsert(tx, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, id := range cs.Delete {
		if _, err := tx.Exec("DELETE FROM tasks WHERE id = ?", id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete task %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	logger.Debug("Applied change set", "upserted", len(cs.Upsert), "deleted", len(cs.Delete))
	return nil
}

func (s *Store) DeleteTask(id string) error {
	// Soft delete: set deleted_at timestamp instead of removing the record
	var deletedAt sql.NullString
	err := s.db.QueryRow("SELECT deleted_at FROM tasks WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to check task existence: %w", err)
	}

	if deletedAt.Valid {
		return fmt.Errorf("task with id %s is already deleted", id)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec("UPDATE tasks SET deleted_at = ? WHERE id = ?", now, id)
	return err
}

func (s *Store) RestoreTask(id string) error {
	var deletedAt sql.NullString
	err := s.db.QueryRow("SELECT deleted_at FROM tasks WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to check task existence: %w", err)
	}

	if !deletedAt.Valid {
		return fmt.Errorf("cannot restore a task that is not deleted: %s", id)
	}

	_, err = s.db.Exec("UPDATE tasks SET deleted_at = NULL WHERE id = ?", id)
	return err
}

func upsert(db execer, task models.Task) error {
	row, err := taskrow.FromTask(task)
	if err != nil {
		return err
	}
	if _, err := db.Exec(upsertTask, row.Args()...); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}
