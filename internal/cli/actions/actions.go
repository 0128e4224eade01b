// Package actions holds the commands that move a task through its
// lifecycle.
package actions

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

// rejected prints lifecycle refusals as a no-op notice and passes every
// other error through.
func rejected(ctx *cli.Context, err error) error {
	if apperrors.IsUserFacing(err) {
		ctx.Println(cli.WarningStyle.Render(err.Error()))
		return nil
	}
	return err
}

func printSpawned(ctx *cli.Context, label string, t *models.Task) {
	if t == nil {
		return
	}
	ctx.Printf("  %s: %s (ID: %s)\n", label, utils.FormatDate(t.DueDate), t.ID)
}

// withRegenerated folds the next instance of the task's series into cs
// when the series is due for one.
func withRegenerated(ctx *cli.Context, updated models.Task, cs models.ChangeSet) (models.ChangeSet, *models.Task, error) {
	if updated.GroupID() == "" {
		return cs, nil, nil
	}
	siblings, err := ctx.Store.ListTasksByGroup(updated.GroupID())
	if err != nil {
		return cs, nil, fmt.Errorf("failed to load series %s: %w", updated.GroupID(), err)
	}
	for i := range siblings {
		if siblings[i].ID == updated.ID {
			siblings[i] = updated
		}
	}

	res, err := ctx.Engine.Regenerate(siblings)
	if err != nil {
		return cs, nil, err
	}
	if res.Spawned == nil || res.Source.ID != updated.ID {
		return cs, nil, nil
	}
	return res.Changes(), res.Spawned, nil
}
