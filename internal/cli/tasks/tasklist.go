package tasks

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

type TaskListCmd struct {
	All     bool   `short:"a" help:"Include finished and postponed tasks."`
	Group   string `short:"g" help:"Only show instances of this series."`
	Deleted bool   `help:"Show deleted tasks only."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	tasks, err := c.load(ctx)
	if err != nil {
		return err
	}

	var shown []models.Task
	for _, t := range tasks {
		if c.Deleted != (t.DeletedAt != nil) {
			continue
		}
		if !c.All && !c.Deleted && t.Status != models.StatusPending {
			continue
		}
		shown = append(shown, t)
	}

	if len(shown) == 0 {
		ctx.Println("No tasks found")
		return nil
	}

	now := ctx.Now()
	ctx.Println(cli.HeaderStyle.Render("Tasks:"))
	for _, t := range shown {
		due := utils.FormatDate(t.DueDate)
		if t.DueTime != nil {
			due += " " + t.DueTime.String()
		}
		line := fmt.Sprintf("  %s  %-10s  %s  %s", cli.ShortID(t.ID), due, cli.StatusLabel(t.Status), t.Title)
		if t.Status == models.StatusPending && now.After(t.DueAt()) {
			line += " " + cli.WarningStyle.Render("(overdue)")
		}
		ctx.Println(line)

		if t.RecurrenceRule != nil && !t.RecurrenceRule.IsZero() {
			ctx.Printf("      %s #%d, %s\n", seriesKind(t), t.OccurrenceIndex, t.RecurrenceRule.Describe())
		}
	}
	return nil
}

func (c *TaskListCmd) load(ctx *cli.Context) ([]models.Task, error) {
	switch {
	case c.Group != "":
		tasks, err := ctx.Store.ListTasksByGroup(c.Group)
		if err != nil {
			return nil, fmt.Errorf("failed to list series %s: %w", c.Group, err)
		}
		return tasks, nil
	case c.Deleted:
		tasks, err := ctx.Store.ListAllTasksIncludingDeleted()
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return tasks, nil
	default:
		tasks, err := ctx.Store.ListTasks()
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return tasks, nil
	}
}

func seriesKind(t models.Task) string {
	if !t.IsRoutine() {
		return "series"
	}
	if t.IsRoutineActive {
		return "routine"
	}
	return "paused routine"
}
