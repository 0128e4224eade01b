// Package cli holds the state shared by the cadence commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/lifecycle"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

type Context struct {
	Store  storage.Provider
	Engine *lifecycle.Engine
	Config config.Config
	Out    io.Writer
	Now    func() time.Time
}

// NewContext wires an engine over store using the configured scoring and
// timezone. Extra options are applied after the defaults.
func NewContext(store storage.Provider, cfg config.Config, opts ...lifecycle.Option) *Context {
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }
	ctx := &Context{
		Store:  store,
		Config: cfg,
		Out:    os.Stdout,
		Now:    now,
	}
	ctx.Engine = lifecycle.New(store, append([]lifecycle.Option{
		lifecycle.WithClock(func() time.Time { return ctx.Now() }),
		lifecycle.WithScoring(cfg.LifecycleScoring()),
	}, opts...)...)
	return ctx
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// Today returns midnight of the current day.
func (c *Context) Today() time.Time {
	return models.DateOf(c.Now())
}

// FindTask resolves id, or a unique prefix of one, to a live task.
func (c *Context) FindTask(id string) (models.Task, error) {
	task, err := c.Store.GetTask(id)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, apperrors.ErrTaskNotFound) {
		return models.Task{}, err
	}

	tasks, err := c.Store.ListTasks()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	var matches []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, id) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("%w: %s", apperrors.ErrTaskNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("id prefix %q matches %d tasks", id, len(matches))
	}
}

// Persist writes the outcome of one lifecycle operation.
func (c *Context) Persist(cs models.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}
	if err := c.Store.Apply(cs); err != nil {
		return fmt.Errorf("failed to save changes: %w", err)
	}
	return nil
}

// PerformAutomaticBackup snapshots file stores and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	path := c.Store.GetConfigPath()
	if !backup.Supported(path) {
		return
	}
	if _, err := backup.NewManager(path).Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
			continue
		}
		// 0=Sunday, 6=Saturday
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		weekdays = append(weekdays, time.Weekday(num))
	}
	return weekdays, nil
}

// ParseMonthDays parses a comma-separated list of days of the month.
func ParseMonthDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 1 || d > 31 {
			return nil, fmt.Errorf("invalid day of month: %s", part)
		}
		days = append(days, d)
	}
	return days, nil
}

// ParseDayOfYear parses MM-DD.
func ParseDayOfYear(s string) (models.DayOfYear, error) {
	t, err := time.Parse("01-02", strings.TrimSpace(s))
	if err != nil {
		return models.DayOfYear{}, fmt.Errorf("invalid day of year %q (expected MM-DD)", s)
	}
	return models.DayOfYear{Month: t.Month(), Day: t.Day()}, nil
}

// ShortID trims a uuid for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ResolveDatabase picks the store location: the --db flag, then
// $CADENCE_DB, then $CADENCE_DB_CONNECTION, then a connection string saved
// in the keyring, then the config file or default path.
func ResolveDatabase(flag string, cfg config.Config, fromKeyring func() (string, error)) string {
	if flag != "" {
		return flag
	}
	if os.Getenv(constants.EnvDB) != "" {
		return cfg.Database
	}
	if conn := strings.TrimSpace(os.Getenv(constants.EnvDBConn)); conn != "" {
		return conn
	}
	if fromKeyring != nil {
		if conn, err := fromKeyring(); err == nil && conn != "" {
			logger.Debug("Using connection string from keyring")
			return conn
		}
	}
	return cfg.Database
}
