package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
)

func backupManager(ctx *cli.Context) (*backup.Manager, error) {
	path := ctx.Store.GetConfigPath()
	if !backup.Supported(path) {
		return nil, fmt.Errorf("backups are only available for SQLite and JSON storage")
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	// Bare filenames are looked up in the backup directory.
	path := c.BackupFile
	if _, err := os.Stat(path); err != nil && !filepath.IsAbs(path) {
		path = filepath.Join(mgr.Dir(), filepath.Base(path))
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := mgr.Restore(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Printf("✓ Restored %s from %s\n", ctx.Store.GetConfigPath(), filepath.Base(path))
	return nil
}
