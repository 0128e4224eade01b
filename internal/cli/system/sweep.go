package system

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/scheduler"
	"github.com/julianstephens/cadence/internal/utils"
)

type SweepCmd struct {
	DryRun bool `help:"Show the instances that would be created without saving them."`
}

func (c *SweepCmd) Run(ctx *cli.Context) error {
	n, err := sweep(ctx, c.DryRun)
	if err != nil {
		return err
	}
	if n == 0 {
		ctx.Println("All series are up to date.")
	}
	if c.DryRun {
		s := scheduler.New(ctx.Config.Location())
		if next, err := s.NextAfter(ctx.Config.SweepSchedule, ctx.Now()); err == nil {
			ctx.Printf("Next scheduled sweep: %s\n", next.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// sweep creates the missing next instance of every finished series and
// returns how many were created.
func sweep(ctx *cli.Context, dryRun bool) (int, error) {
	results, err := ctx.Engine.Sweep()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, res := range results {
		verb := "Created"
		if dryRun {
			verb = "Would create"
		} else if err := ctx.Persist(res.Changes()); err != nil {
			logger.Error("Failed to save regenerated task", "group", res.Source.GroupID(), "error", err)
			continue
		}
		created++
		ctx.Printf("%s: %s due %s (ID: %s)\n", verb, res.Spawned.Title, utils.FormatDate(res.Spawned.DueDate), res.Spawned.ID)
	}
	logger.Info("Sweep finished", "created", created, "dry_run", dryRun)
	return created, nil
}
