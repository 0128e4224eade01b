package tasks

import (
	"github.com/julianstephens/cadence/internal/cli"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/utils"
)

type TaskPauseCmd struct {
	ID string `arg:"" help:"ID or unique prefix of any instance of the routine."`
}

func (c *TaskPauseCmd) Run(ctx *cli.Context) error {
	return setRoutineActive(ctx, c.ID, false)
}

type TaskResumeCmd struct {
	ID string `arg:"" help:"ID or unique prefix of any instance of the routine."`
}

func (c *TaskResumeCmd) Run(ctx *cli.Context) error {
	return setRoutineActive(ctx, c.ID, true)
}

func setRoutineActive(ctx *cli.Context, id string, active bool) error {
	task, err := ctx.FindTask(id)
	if err != nil {
		return err
	}

	res, err := ctx.Engine.SetRoutineActive(task, active)
	if err != nil {
		if apperrors.IsUserFacing(err) {
			ctx.Println(cli.WarningStyle.Render(err.Error()))
			return nil
		}
		return err
	}
	if err := ctx.Persist(res.Changes()); err != nil {
		return err
	}

	if !active {
		ctx.Printf("Paused routine: %s (%d instances)\n", task.Title, len(res.Updated))
		return nil
	}
	ctx.Printf("Resumed routine: %s (%d instances)\n", task.Title, len(res.Updated))
	if res.Spawned != nil {
		ctx.Printf("  Next occurrence: %s (ID: %s)\n", utils.FormatDate(res.Spawned.DueDate), res.Spawned.ID)
	}
	return nil
}
