package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/lockfile"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/scheduler"
	"github.com/julianstephens/cadence/internal/utils"
)

type WatchCmd struct {
	Schedule string `help:"Cron schedule for the sweep (defaults to the configured sweep_schedule)."`
	At       string `help:"Sweep once a day at this time (HH:MM)."`
	Now      bool   `help:"Run one sweep immediately before waiting."`
}

func (c *WatchCmd) Validate() error {
	if c.At != "" {
		if c.Schedule != "" {
			return fmt.Errorf("--at and --schedule cannot be combined")
		}
		if !utils.ValidateTimeFormat(c.At) {
			return fmt.Errorf("invalid time format (expected HH:MM): %s", c.At)
		}
		return nil
	}
	if c.Schedule == "" {
		return nil
	}
	return scheduler.Validate(c.Schedule)
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	spec := c.Schedule
	if spec == "" {
		spec = ctx.Config.SweepSchedule
	}

	if ctx.Config.Dir != "" {
		lock, err := lockfile.Acquire(filepath.Join(ctx.Config.Dir, constants.WatchLockfileName), ctx.Store.GetConfigPath())
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("Failed to release watch lock", "error", err)
			}
		}()
	}

	s := scheduler.New(ctx.Config.Location())
	// Each run is reported on stdout as a log line.
	runLog := logger.NewWriterLogger(ctx.Out, "info")
	var id cron.EntryID
	var err error
	job := func() error {
		n, err := sweep(ctx, false)
		if err != nil {
			runLog.Error("Sweep failed", "error", err)
			return err
		}
		runLog.Info("Sweep finished", "created", n, "next", s.Next(id).Format("2006-01-02 15:04"))
		return nil
	}
	if c.At != "" {
		id, err = s.ScheduleDaily("sweep", c.At, job)
	} else {
		id, err = s.Schedule("sweep", spec, job)
	}
	if err != nil {
		return err
	}

	if c.Now {
		if _, err := sweep(ctx, false); err != nil {
			return err
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start()
	ctx.Printf("Watching %s, next sweep at %s. Press Ctrl+C to stop.\n",
		ctx.Store.GetConfigPath(), s.Next(id).Format("2006-01-02 15:04"))

	<-sigCtx.Done()
	ctx.Println("Stopping...")
	s.Stop()
	return nil
}
