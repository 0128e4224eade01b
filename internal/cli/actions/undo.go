package actions

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
)

type UndoCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return err
	}
	// A postponed original is superseded by its child; undoing the child
	// means undoing the postpone on its parent.
	if task.Status == models.StatusPending && task.ParentTaskID != "" {
		parent, err := ctx.Store.GetTask(task.ParentTaskID)
		if err == nil && parent.Status == models.StatusPostponed && parent.SpawnedTaskID == task.ID {
			task = parent
		}
	}

	res, err := ctx.Engine.Undo(task)
	if err != nil {
		return rejected(ctx, err)
	}
	if err := ctx.Persist(res.Changes()); err != nil {
		return err
	}

	ctx.Printf("Undid %s: %s is pending again (%s points)\n", task.Status, res.Task.Title, cli.Points(res.Task.PointsEarned))
	if res.DeletedTaskID != "" {
		ctx.Printf("  Removed: %s\n", res.DeletedTaskID)
	}
	return nil
}
