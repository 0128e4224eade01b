package actions

import (
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/lifecycle"
	"github.com/julianstephens/cadence/internal/utils"
)

type PostponeCmd struct {
	ID      string `arg:"" help:"Task ID or unique prefix."`
	To      string `arg:"" optional:"" help:"New due date (YYYY-MM-DD or tomorrow)."`
	Days    int    `help:"Postpone by this many days instead of to a date."`
	Reason  string `short:"m" help:"Why the task is postponed."`
	Penalty *int   `help:"Deduct this many points instead of the configured penalty."`
}

func (c *PostponeCmd) Validate() error {
	if (c.To == "") == (c.Days == 0) {
		return fmt.Errorf("give either a new date or --days")
	}
	if c.Days < 0 {
		return fmt.Errorf("--days must be positive")
	}
	return nil
}

func (c *PostponeCmd) Run(ctx *cli.Context) error {
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return err
	}

	newDate, err := c.target(ctx, task.DueDate)
	if err != nil {
		return err
	}

	res, err := ctx.Engine.Postpone(task, newDate, c.Reason, lifecycle.PostponeOptions{Penalty: c.Penalty})
	if err != nil {
		return rejected(ctx, err)
	}
	if err := ctx.Persist(res.Changes()); err != nil {
		return err
	}

	entry, _ := res.Archived.LastPostpone()
	ctx.Printf("Postponed: %s to %s (%s points)\n", res.Child.Title, utils.FormatDate(res.Child.DueDate), cli.Points(entry.PenaltyApplied))
	ctx.Printf("  New ID: %s (postponed %d time(s))\n", res.Child.ID, res.Child.PostponeCount)
	return nil
}

func (c *PostponeCmd) target(ctx *cli.Context, due time.Time) (time.Time, error) {
	if c.Days > 0 {
		return due.AddDate(0, 0, c.Days), nil
	}
	return utils.ParseDate(c.To, ctx.Now())
}
