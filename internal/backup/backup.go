// Package backup snapshots file-backed task stores before destructive
// operations such as import, migrate and restore.
package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
)

const (
	// MaxBackups is the number of snapshots kept per store.
	MaxBackups = 14
	DirName    = "backups"

	timestampFormat = "20060102-150405"
)

// Info describes one snapshot on disk.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates and restores snapshots of a SQLite or JSON store file.
type Manager struct {
	storePath string
	dir       string
	now       func() time.Time
}

func NewManager(storePath string) *Manager {
	return &Manager{
		storePath: storePath,
		dir:       filepath.Join(filepath.Dir(storePath), DirName),
		now:       time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Supported reports whether the store is a local file this package can copy.
func Supported(storePath string) bool {
	ext := strings.ToLower(filepath.Ext(storePath))
	return ext == ".db" || ext == ".sqlite" || ext == ".json"
}

func (m *Manager) isJSON() bool {
	return strings.EqualFold(filepath.Ext(m.storePath), ".json")
}

func (m *Manager) prefix() string {
	return strings.TrimSuffix(filepath.Base(m.storePath), filepath.Ext(m.storePath)) + "-"
}

// Create writes a new snapshot and rotates old ones.
func (m *Manager) Create() (string, error) {
	if _, err := os.Stat(m.storePath); err != nil {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}

	if m.isJSON() {
		err = copyFile(m.storePath, path)
	} else {
		err = vacuumInto(m.storePath, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", m.storePath, err)
	}

	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	logger.Info("Backup created", "path", path)
	return path, nil
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.now().Format(timestampFormat)
	ext := filepath.Ext(m.storePath)
	path := filepath.Join(m.dir, m.prefix()+stamp+ext)
	for i := 1; fileExists(path); i++ {
		if i > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", m.prefix(), stamp, i, ext))
	}
	return path, nil
}

// List returns the snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	ext := filepath.Ext(m.storePath)
	var out []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix()) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, m.prefix()), ext)
		// Drop the collision counter.
		if i := strings.LastIndex(stamp, "-"); i > len("20060102") {
			stamp = stamp[:i]
		}
		ts, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(m.dir, name), Timestamp: ts, Size: info.Size()})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Path > out[j].Path
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the store with the given snapshot after taking a
// snapshot of the current state. The store must be closed.
func (m *Manager) Restore(path string) error {
	if !fileExists(path) {
		return fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := m.verify(path); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if fileExists(m.storePath) {
		current, err := m.Create()
		if err != nil {
			return fmt.Errorf("failed to back up current store before restore: %w", err)
		}
		logger.Info("Backed up current store before restore", "path", current)
	}

	tmp := m.storePath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.storePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to restore %s: %w", constants.AppName, err)
	}
	return nil
}

func (m *Manager) verify(path string) error {
	if m.isJSON() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("not a JSON document")
		}
		return nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func vacuumInto(src, dst string) error {
	db, err := sql.Open("sqlite", src)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.Exec("VACUUM INTO ?", dst); err != nil {
		return copyFile(src, dst)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
