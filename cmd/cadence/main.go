package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/actions"
	"github.com/julianstephens/cadence/internal/cli/reports"
	"github.com/julianstephens/cadence/internal/cli/system"
	"github.com/julianstephens/cadence/internal/cli/tasks"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/keyring"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/storage"
)

var CLI struct {
	Version   kong.VersionFlag
	DB        string `help:"SQLite path, *.json path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use the OS keyring, environment variables or .pgpass instead." name:"db"`
	ConfigDir string `help:"Directory holding config.yaml and logs." type:"path"`
	Debug     bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize cadence storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Task    struct {
		Add     tasks.TaskAddCmd     `cmd:"" help:"Add a task or start a repeating series."`
		List    tasks.TaskListCmd    `cmd:"" help:"List tasks." default:"1"`
		Show    tasks.TaskShowCmd    `cmd:"" help:"Show a task and its postpone history."`
		Delete  tasks.TaskDeleteCmd  `cmd:"" help:"Delete a task."`
		Restore tasks.TaskRestoreCmd `cmd:"" help:"Restore a deleted task."`
		Pause   tasks.TaskPauseCmd   `cmd:"" help:"Stop a routine from generating new instances."`
		Resume  tasks.TaskResumeCmd  `cmd:"" help:"Resume a paused routine."`
	} `cmd:"" help:"Manage tasks."`
	Complete actions.CompleteCmd `cmd:"" help:"Mark a task completed."`
	NotDone  actions.NotDoneCmd  `cmd:"" help:"Mark a task not done."`
	Postpone actions.PostponeCmd `cmd:"" help:"Move a task to a later day."`
	Undo     actions.UndoCmd     `cmd:"" help:"Undo the last transition of a task."`
	Stats    reports.StatsCmd    `cmd:"" help:"Show points, streaks and series progress."`
	Sweep    system.SweepCmd     `cmd:"" help:"Create missing next instances of finished series."`
	Watch    system.WatchCmd     `cmd:"" help:"Run the sweep on a schedule until interrupted."`
	Tui      system.TuiCmd       `cmd:"" help:"Open the interactive task board."`
	Export   system.ExportCmd    `cmd:"" help:"Export all tasks to a JSON file."`
	Import   system.ImportCmd    `cmd:"" help:"Import tasks from another store."`
	Backup   struct {
		Create  system.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    system.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore system.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string, password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Task recurrence and lifecycle engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	dir := CLI.ConfigDir
	if dir == "" {
		dir = config.Dir()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, Level: cfg.LogLevel, ConfigDir: dir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	command := ctx.Command()
	var store storage.Provider
	if !strings.HasPrefix(command, "keyring") {
		store, err = storage.Open(cli.ResolveDatabase(CLI.DB, cfg, keyring.GetConnectionString))
		if err != nil {
			apperrors.Fatal(err)
		}
		// Init, migrate and restore handle their own loading
		if needsLoad(command) {
			if err := store.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}
	}

	err = ctx.Run(cli.NewContext(store, cfg))
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Failed to close storage", "error", cerr)
		}
	}
	apperrors.Fatal(err)
}

func needsLoad(command string) bool {
	for _, prefix := range []string{"init", "migrate", "backup restore"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}
