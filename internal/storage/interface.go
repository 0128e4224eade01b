package storage

import "github.com/julianstephens/cadence/internal/models"

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Tasks
	AddTask(models.Task) error
	// GetTask returns a live task. Unknown and soft-deleted ids yield an
	// error wrapping errors.ErrTaskNotFound.
	GetTask(id string) (models.Task, error)
	ListTasks() ([]models.Task, error)
	// ListTasksByGroup returns the live instances of a recurring or routine
	// series, ordered by occurrence index.
	ListTasksByGroup(groupID string) ([]models.Task, error)
	ListAllTasksIncludingDeleted() ([]models.Task, error)
	UpdateTask(models.Task) error
	DeleteTask(id string) error
	RestoreTask(id string) error

	// Apply persists the result of one lifecycle operation atomically:
	// every task in Upsert is written and every id in Delete is removed,
	// or nothing changes.
	Apply(models.ChangeSet) error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by providers with a versioned schema.
type Migrator interface {
	Migrate() (int, error)
}
