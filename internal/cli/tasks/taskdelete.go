package tasks

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
)

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	// Check if task exists first
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return fmt.Errorf("failed to find task with ID %s: %w", c.ID, err)
	}

	if err := ctx.Store.DeleteTask(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	ctx.Printf("Deleted task: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}

type TaskRestoreCmd struct {
	ID string `arg:"" help:"Task ID to restore."`
}

func (c *TaskRestoreCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.RestoreTask(c.ID); err != nil {
		return fmt.Errorf("failed to restore task: %w", err)
	}

	ctx.Printf("Restored task with ID: %s\n", c.ID)
	return nil
}
