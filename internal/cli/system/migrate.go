package system

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return fmt.Errorf("storage at %s has no schema to migrate", ctx.Store.GetConfigPath())
	}

	ctx.PerformAutomaticBackup()

	count, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("Successfully applied %d migration(s).\n", count)
	}
	return nil
}
