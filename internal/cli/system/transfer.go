package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/storage"
)

// ExportCmd writes every task, deleted ones included, to a JSON document
// that any cadence store can import.
type ExportCmd struct {
	Path  string `arg:"" help:"Destination file (*.json)." type:"path"`
	Force bool   `help:"Overwrite an existing file."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	if _, err := os.Stat(c.Path); err == nil {
		if !c.Force {
			return fmt.Errorf("%s already exists, use --force to overwrite", c.Path)
		}
		if err := os.Remove(c.Path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", c.Path, err)
		}
	}

	dst := storage.NewJSONStore(c.Path)
	if err := dst.Init(); err != nil {
		return err
	}
	defer dst.Close()

	n, err := storage.Copy(dst, ctx.Store)
	if err != nil {
		return err
	}
	ctx.Printf("Exported %d tasks to %s\n", n, c.Path)
	return nil
}

// ImportCmd copies the tasks of another store into the current one. Tasks
// with the same ID are overwritten.
type ImportCmd struct {
	Source string `arg:"" help:"JSON export, SQLite file or PostgreSQL connection string."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	if samePath(c.Source, ctx.Store.GetConfigPath()) {
		return fmt.Errorf("cannot import a store into itself")
	}

	ctx.PerformAutomaticBackup()

	n, err := copyFrom(ctx, c.Source)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	ctx.Printf("Imported %d tasks from %s\n", n, c.Source)
	return nil
}
