package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/migration"
	"github.com/julianstephens/cadence/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	s.db = db

	if _, err := s.runner().ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("SQLite store initialized", "path", s.path)
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	s.db = db

	// Validate schema version using embedded migrations
	return s.runner().ValidateVersion()
}

// Migrate applies pending migrations to an existing database.
func (s *Store) Migrate() (int, error) {
	if s.db == nil {
		db, err := s.open()
		if err != nil {
			return 0, err
		}
		s.db = db
	}
	return s.runner().ApplyMigrations()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *Store) runner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// The embedded directory is fixed at build time.
		panic(fmt.Sprintf("sqlite migrations missing from build: %v", err))
	}
	return migration.NewRunner(s.db, subFS, migration.SQLite)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
