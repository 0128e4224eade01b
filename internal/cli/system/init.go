package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy tasks from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if c.Force {
		if storage.IsPostgres(dbPath) {
			return fmt.Errorf("--force is only supported for file storage")
		}
		// Don't delete if it's the source (user error protection)
		if c.Source != "" && samePath(c.Source, dbPath) {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release the file
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, dbPath)

	if err := c.writeConfig(ctx); err != nil {
		return err
	}

	if c.Source != "" {
		ctx.Printf("Copying tasks from: %s\n", c.Source)
		n, err := copyFrom(ctx, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("  Copied %d tasks\n", n)
	}
	return nil
}

// writeConfig saves the resolved settings the first time cadence is set up.
func (c *InitCmd) writeConfig(ctx *cli.Context) error {
	if ctx.Config.Dir == "" {
		return nil
	}
	path := filepath.Join(ctx.Config.Dir, constants.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cfg := ctx.Config
	if storage.IsPostgres(cfg.Database) {
		// Connection strings stay in the keyring or environment.
		cfg.Database = ""
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ctx.Printf("Wrote config: %s\n", path)
	return nil
}

// copyFrom loads the store at source and copies every task into ctx.Store.
func copyFrom(ctx *cli.Context, source string) (int, error) {
	src, err := storage.Open(source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	return storage.Copy(ctx.Store, src)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
