package actions

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/lifecycle"
)

type CompleteCmd struct {
	ID     string `arg:"" help:"Task ID or unique prefix."`
	Points *int   `help:"Award this many points instead of the priority based reward."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return err
	}

	res, err := ctx.Engine.Complete(task, lifecycle.CompleteOptions{Reward: c.Points})
	if err != nil {
		return rejected(ctx, err)
	}
	if err := ctx.Persist(res.Changes()); err != nil {
		return err
	}

	ctx.Printf("Completed: %s (%s points)\n", res.Task.Title, cli.Points(res.Task.TransitionPoints))
	printSpawned(ctx, "Next occurrence", res.Spawned)
	if res.Spawned == nil && task.IsSeriesActive() {
		ctx.Println(cli.MutedStyle.Render("  Series finished."))
	}
	return nil
}
