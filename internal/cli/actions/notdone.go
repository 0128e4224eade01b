package actions

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/lifecycle"
)

type NotDoneCmd struct {
	ID      string `arg:"" help:"Task ID or unique prefix."`
	Reason  string `short:"m" help:"Why the task was not done."`
	Penalty *int   `help:"Deduct this many points instead of the configured penalty."`
}

func (c *NotDoneCmd) Run(ctx *cli.Context) error {
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return err
	}

	res, err := ctx.Engine.MarkNotDone(task, c.Reason, lifecycle.NotDoneOptions{Penalty: c.Penalty})
	if err != nil {
		return rejected(ctx, err)
	}
	cs, spawned, err := withRegenerated(ctx, res.Task, res.Changes())
	if err != nil {
		return err
	}
	if err := ctx.Persist(cs); err != nil {
		return err
	}

	ctx.Printf("Not done: %s (%s points)\n", res.Task.Title, cli.Points(res.Task.TransitionPoints))
	printSpawned(ctx, "Next occurrence", spawned)
	return nil
}
