package tasks

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/stats"
	"github.com/julianstephens/cadence/internal/utils"
)

type TaskShowCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskShowCmd) Run(ctx *cli.Context) error {
	t, err := ctx.FindTask(c.ID)
	if err != nil {
		return err
	}
	now := ctx.Now()

	ctx.Println(cli.HeaderStyle.Render(t.Title))
	ctx.Printf("  ID:        %s\n", t.ID)
	ctx.Printf("  Status:    %s\n", cli.StatusLabel(t.Status))
	ctx.Printf("  Priority:  %d\n", t.Priority)

	due := utils.FormatDate(t.DueDate)
	if t.DueTime != nil {
		due += " " + t.DueTime.String()
	}
	ctx.Printf("  Due:       %s", due)
	if t.OriginalDueDate != nil {
		ctx.Printf(" (originally %s)", utils.FormatDate(*t.OriginalDueDate))
	}
	ctx.Println()
	if t.Status == models.StatusPending {
		if now.Before(t.DueAt()) {
			ctx.Printf("  Due in:    %s\n", stats.TimeUntil(t.DueAt(), now))
		} else {
			ctx.Printf("  Overdue:   %s\n", cli.WarningStyle.Render(stats.TimeSince(t.DueAt(), now)))
		}
	}

	ctx.Printf("  Points:    %s\n", cli.Points(t.PointsEarned))
	if t.CompletedAt != nil {
		ctx.Printf("  Completed: %s ago\n", stats.TimeSince(*t.CompletedAt, now))
	}
	if t.NotDoneAt != nil {
		ctx.Printf("  Not done:  %s ago", stats.TimeSince(*t.NotDoneAt, now))
		if t.NotDoneReason != "" {
			ctx.Printf(" (%s)", t.NotDoneReason)
		}
		ctx.Println()
	}

	if t.RecurrenceRule != nil && !t.RecurrenceRule.IsZero() {
		ctx.Printf("  Repeats:   %s\n", t.RecurrenceRule.Describe())
		ctx.Printf("  Series:    %s (%s #%d)\n", t.GroupID(), seriesKind(t), t.OccurrenceIndex)
	}
	if t.ParentTaskID != "" {
		ctx.Printf("  Parent:    %s\n", t.ParentTaskID)
	}
	if t.SpawnedTaskID != "" {
		ctx.Printf("  Next:      %s\n", t.SpawnedTaskID)
	}

	if len(t.PostponeHistory) > 0 {
		ctx.Printf("  Postponed %d time(s), %s points:\n", t.PostponeCount, cli.Points(t.PenaltyTotal()))
		for _, e := range t.PostponeHistory {
			ctx.Printf("    %s -> %s  %s", utils.FormatDate(e.From), utils.FormatDate(e.To), cli.Points(e.PenaltyApplied))
			if e.Reason != "" {
				ctx.Printf("  %s", cli.MutedStyle.Render(e.Reason))
			}
			ctx.Println()
		}
	}
	return nil
}
