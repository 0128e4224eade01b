package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage/postgres"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
	_ Provider = (*JSONStore)(nil)
	_ Migrator = (*sqlite.Store)(nil)
	_ Migrator = (*postgres.Store)(nil)
)

// IsPostgres reports whether target is a PostgreSQL connection string.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") ||
		strings.HasPrefix(target, "postgresql://") ||
		strings.Contains(target, "host=")
}

// Open returns the provider for target without touching it: PostgreSQL for
// connection strings, a JSON document for *.json paths, SQLite otherwise.
func Open(target string) (Provider, error) {
	switch {
	case IsPostgres(target):
		if _, err := postgres.ValidateConnString(target); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: use the OS keyring, PGPASSWORD or ~/.pgpass instead", err)
			}
			return nil, err
		}
		logger.Debug("Using PostgreSQL storage")
		return postgres.New(target), nil
	case strings.HasSuffix(strings.ToLower(target), ".json"):
		logger.Debug("Using JSON storage", "path", target)
		return NewJSONStore(target), nil
	default:
		logger.Debug("Using SQLite storage", "path", target)
		return sqlite.NewStore(target), nil
	}
}

// Copy writes every task of src, including soft-deleted ones, into dst.
func Copy(dst, src Provider) (int, error) {
	tasks, err := src.ListAllTasksIncludingDeleted()
	if err != nil {
		return 0, fmt.Errorf("failed to read tasks from source: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}
	if err := dst.Apply(models.ChangeSet{Upsert: tasks}); err != nil {
		return 0, fmt.Errorf("failed to write tasks to destination: %w", err)
	}
	return len(tasks), nil
}
