package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
)

// Document is the on-disk shape of a JSON store.
type Document struct {
	Version int                    `json:"version"`
	Tasks   map[string]models.Task `json:"tasks"`
}

// JSONStore keeps every task in a single JSON document that is rewritten
// on each change.
type JSONStore struct {
	path string
	doc  *Document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.doc = &Document{
		Version: 1,
		Tasks:   make(map[string]models.Task),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = make(map[string]models.Task)
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes to a temporary file and renames it over the document so a
// crash never leaves a truncated store.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) AddTask(task models.Task) error {
	return s.UpdateTask(task)
}

func (s *JSONStore) GetTask(id string) (models.Task, error) {
	if err := s.loaded(); err != nil {
		return models.Task{}, err
	}

	task, ok := s.doc.Tasks[id]
	if !ok || task.DeletedAt != nil {
		return models.Task{}, fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
	}
	return task.Clone(), nil
}

func (s *JSONStore) ListTasks() ([]models.Task, error) {
	return s.list(func(t models.Task) bool { return t.DeletedAt == nil })
}

func (s *JSONStore) ListTasksByGroup(groupID string) ([]models.Task, error) {
	tasks, err := s.list(func(t models.Task) bool {
		return t.DeletedAt == nil && (t.RecurrenceGroupID == groupID || t.RoutineGroupID == groupID)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].OccurrenceIndex < tasks[j].OccurrenceIndex
	})
	return tasks, nil
}

func (s *JSONStore) ListAllTasksIncludingDeleted() ([]models.Task, error) {
	return s.list(func(models.Task) bool { return true })
}

func (s *JSONStore) list(keep func(models.Task) bool) ([]models.Task, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(s.doc.Tasks))
	for _, task := range s.doc.Tasks {
		if keep(task) {
			tasks = append(tasks, task.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		if tasks[i].OccurrenceIndex != tasks[j].OccurrenceIndex {
			return tasks[i].OccurrenceIndex < tasks[j].OccurrenceIndex
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *JSONStore) UpdateTask(task models.Task) error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.doc.Tasks[task.ID] = task.Clone()
	return s.save()
}

// Apply updates the in-memory document and saves it once. On a failed save
// the previous document is restored.
func (s *JSONStore) Apply(cs models.ChangeSet) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if cs.IsEmpty() {
		return nil
	}

	prev := make(map[string]models.Task, len(s.doc.Tasks))
	for id, t := range s.doc.Tasks {
		prev[id] = t
	}

	for _, t := range cs.Upsert {
		s.doc.Tasks[t.ID] = t.Clone()
	}
	for _, id := range cs.Delete {
		delete(s.doc.Tasks, id)
	}
	if err := s.save(); err != nil {
		s.doc.Tasks = prev
		return err
	}
	return nil
}

func (s *JSONStore) DeleteTask(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}

	task, ok := s.doc.Tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
	}
	if task.DeletedAt != nil {
		return fmt.Errorf("task with id %s is already deleted", id)
	}

	// Soft delete: set deleted_at timestamp
	now := time.Now().UTC()
	task.DeletedAt = &now
	s.doc.Tasks[id] = task
	return s.save()
}

func (s *JSONStore) RestoreTask(id string) error {
	if err := s.loaded(); err != nil {
		return err
	}

	task, ok := s.doc.Tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
	}
	if task.DeletedAt == nil {
		return fmt.Errorf("cannot restore a task that is not deleted: %s", id)
	}

	task.DeletedAt = nil
	s.doc.Tasks[id] = task
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
