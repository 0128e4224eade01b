package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

type TaskAddCmd struct {
	Title        string `arg:"" help:"Task title."`
	Due          string `short:"d" help:"Due date (YYYY-MM-DD, today or tomorrow). Repeating tasks start here." default:"today"`
	At           string `short:"t" help:"Due time (HH:MM)."`
	Priority     int    `short:"p" help:"Priority (1-5, lower is higher priority)." default:"3"`
	Repeat       string `short:"r" help:"Repeat pattern." enum:"none,daily,weekly,monthly,yearly,custom" default:"none"`
	Every        int    `short:"i" help:"Interval between occurrences." default:"1"`
	Unit         string `help:"Unit for custom repeats." enum:"days,weeks,months,years" default:"days"`
	Weekdays     string `short:"w" help:"Comma-separated weekdays for weekly repeats."`
	MonthDays    string `help:"Comma-separated days of the month for monthly repeats."`
	YearDay      string `help:"Month and day (MM-DD) for yearly repeats."`
	SkipWeekends bool   `help:"Move daily occurrences that land on a weekend to Monday."`
	Until        string `help:"Stop repeating after this date (YYYY-MM-DD)."`
	Count        int    `help:"Stop repeating after this many occurrences."`
	Routine      bool   `help:"Count the next occurrence from when this one is finished."`
}

func (c *TaskAddCmd) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if c.Priority < 1 || c.Priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5")
	}
	if c.Every < 1 {
		return fmt.Errorf("interval must be at least 1")
	}
	if c.Until != "" && c.Count != 0 {
		return fmt.Errorf("--until and --count cannot be combined")
	}
	if c.Count < 0 {
		return fmt.Errorf("count must be positive")
	}
	if c.At != "" && !utils.ValidateTimeFormat(c.At) {
		return fmt.Errorf("invalid time format (expected HH:MM): %s", c.At)
	}
	if c.Repeat == string(models.RecurrenceNone) || c.Repeat == "" {
		if c.Routine || c.Until != "" || c.Count != 0 {
			return fmt.Errorf("--routine, --until and --count require --repeat")
		}
	}
	return nil
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	due, err := utils.ParseDate(c.Due, ctx.Now())
	if err != nil {
		return err
	}

	task := models.Task{
		Title:     strings.TrimSpace(c.Title),
		Priority:  c.Priority,
		DueDate:   due,
		Status:    models.StatusPending,
		CreatedAt: ctx.Now(),
	}
	if c.At != "" {
		tod, err := models.ParseTimeOfDay(c.At)
		if err != nil {
			return err
		}
		task.DueTime = &tod
	}

	rule, err := c.rule(ctx, due)
	if err != nil {
		return err
	}
	if rule.IsZero() {
		task.ID = uuid.New().String()
	} else {
		task, err = ctx.Engine.NewSeries(task, rule, c.Routine)
		if err != nil {
			return err
		}
	}

	if err := ctx.Store.AddTask(task); err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	ctx.Printf("Added task: %s (ID: %s)\n", task.Title, task.ID)
	ctx.Printf("  Due: %s\n", utils.FormatDate(task.DueDate))
	if task.RecurrenceRule != nil {
		kind := "Repeats"
		if task.IsRoutine() {
			kind = "Routine"
		}
		ctx.Printf("  %s: %s\n", kind, task.RecurrenceRule.Describe())
		if !task.IsRoutine() {
			if dates, err := utils.Occurrences(*task.RecurrenceRule, 3); err == nil && len(dates) > 1 {
				upcoming := make([]string, len(dates))
				for i, d := range dates {
					upcoming[i] = utils.FormatDate(d)
				}
				ctx.Printf("  Upcoming: %s\n", strings.Join(upcoming, ", "))
			}
		}
	}
	return nil
}

func (c *TaskAddCmd) rule(ctx *cli.Context, start time.Time) (models.RecurrenceRule, error) {
	rule := models.RecurrenceRule{
		Type:         models.RecurrenceType(c.Repeat),
		Interval:     c.Every,
		StartDate:    start,
		EndCondition: models.EndNever,
		SkipWeekends: c.SkipWeekends,
	}
	if rule.Type == "" {
		rule.Type = models.RecurrenceNone
	}

	var err error
	switch rule.Type {
	case models.RecurrenceWeekly:
		if c.Weekdays != "" {
			if rule.DaysOfWeek, err = cli.ParseWeekdays(c.Weekdays); err != nil {
				return rule, err
			}
		}
	case models.RecurrenceMonthly:
		if c.MonthDays != "" {
			if rule.DaysOfMonth, err = cli.ParseMonthDays(c.MonthDays); err != nil {
				return rule, err
			}
		}
	case models.RecurrenceYearly:
		if c.YearDay != "" {
			doy, err := cli.ParseDayOfYear(c.YearDay)
			if err != nil {
				return rule, err
			}
			rule.DayOfYear = &doy
		}
	case models.RecurrenceCustom:
		rule.Unit = models.Unit(c.Unit)
	}

	switch {
	case c.Until != "":
		end, err := utils.ParseDate(c.Until, ctx.Now())
		if err != nil {
			return rule, err
		}
		rule.EndCondition = models.EndOnDate
		rule.EndDate = &end
	case c.Count > 0:
		rule.EndCondition = models.EndAfterOccurrences
		rule.OccurrenceLimit = c.Count
	}
	return models.NewRecurrenceRule(rule)
}
