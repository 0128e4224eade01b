package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
)

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

type EndCondition string

const (
	EndNever            EndCondition = "never"
	EndOnDate           EndCondition = "on_date"
	EndAfterOccurrences EndCondition = "after_occurrences"
)

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// DayOfYear is a month/day pair for yearly rules.
type DayOfYear struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// RecurrenceRule describes a repeat pattern and when it stops. Rules are
// values: build them with NewRecurrenceRule and build a new one to edit.
type RecurrenceRule struct {
	Type            RecurrenceType `json:"type"`
	Interval        int            `json:"interval"`
	StartDate       time.Time      `json:"startDate"`
	EndCondition    EndCondition   `json:"endCondition"`
	EndDate         *time.Time     `json:"endDate,omitempty"`
	OccurrenceLimit int            `json:"occurrenceLimit,omitempty"`
	DaysOfWeek      []time.Weekday `json:"daysOfWeek,omitempty"`
	DaysOfMonth     []int          `json:"daysOfMonth,omitempty"`
	DayOfYear       *DayOfYear     `json:"dayOfYear,omitempty"`
	Unit            Unit           `json:"unit,omitempty"`
	SkipWeekends    bool           `json:"skipWeekends"`
}

// NewRecurrenceRule normalizes r and checks its cross-field invariants. The
// returned rule shares no memory with r.
func NewRecurrenceRule(r RecurrenceRule) (RecurrenceRule, error) {
	out := r.clone()

	if out.Type == "" {
		out.Type = RecurrenceNone
	}
	if out.EndCondition == "" {
		out.EndCondition = EndNever
	}
	if out.Interval == 0 {
		out.Interval = 1
	}
	if out.Interval < 0 {
		return RecurrenceRule{}, malformed("interval must be positive, got %d", out.Interval)
	}

	switch out.Type {
	case RecurrenceNone:
		out.Interval = 1
		out.DaysOfWeek, out.DaysOfMonth, out.DayOfYear, out.Unit = nil, nil, nil, ""
		out.SkipWeekends = false
		return out, nil
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom:
	default:
		return RecurrenceRule{}, malformed("unknown recurrence type %q", out.Type)
	}

	if out.StartDate.IsZero() {
		return RecurrenceRule{}, malformed("%s rule requires a start date", out.Type)
	}

	switch out.Type {
	case RecurrenceDaily:
		out.DaysOfWeek, out.DaysOfMonth, out.DayOfYear, out.Unit = nil, nil, nil, ""
	case RecurrenceWeekly:
		if len(out.DaysOfWeek) == 0 {
			out.DaysOfWeek = []time.Weekday{out.StartDate.Weekday()}
		}
		days, err := normalizeWeekdays(out.DaysOfWeek)
		if err != nil {
			return RecurrenceRule{}, err
		}
		out.DaysOfWeek = days
		out.DaysOfMonth, out.DayOfYear, out.Unit = nil, nil, ""
		out.SkipWeekends = false
	case RecurrenceMonthly:
		if len(out.DaysOfMonth) == 0 {
			out.DaysOfMonth = []int{out.StartDate.Day()}
		}
		days, err := normalizeMonthDays(out.DaysOfMonth)
		if err != nil {
			return RecurrenceRule{}, err
		}
		out.DaysOfMonth = days
		out.DaysOfWeek, out.DayOfYear, out.Unit = nil, nil, ""
		out.SkipWeekends = false
	case RecurrenceYearly:
		if out.DayOfYear == nil {
			out.DayOfYear = &DayOfYear{Month: out.StartDate.Month(), Day: out.StartDate.Day()}
		}
		if out.DayOfYear.Month < time.January || out.DayOfYear.Month > time.December {
			return RecurrenceRule{}, malformed("month must be between 1 and 12, got %d", out.DayOfYear.Month)
		}
		// Feb 29 is accepted and clamped in non-leap years.
		if out.DayOfYear.Day < 1 || out.DayOfYear.Day > DaysIn(out.DayOfYear.Month, 2000) {
			return RecurrenceRule{}, malformed("day %d does not exist in %s", out.DayOfYear.Day, out.DayOfYear.Month)
		}
		out.DaysOfWeek, out.DaysOfMonth, out.Unit = nil, nil, ""
		out.SkipWeekends = false
	case RecurrenceCustom:
		if out.Unit == "" {
			out.Unit = UnitDays
		}
		switch out.Unit {
		case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		default:
			return RecurrenceRule{}, malformed("unknown unit %q", out.Unit)
		}
		out.DaysOfWeek, out.DaysOfMonth, out.DayOfYear = nil, nil, nil
	}

	switch out.EndCondition {
	case EndNever:
		out.EndDate = nil
		out.OccurrenceLimit = 0
	case EndOnDate:
		if out.EndDate == nil || out.EndDate.IsZero() {
			return RecurrenceRule{}, malformed("end condition %s requires an end date", out.EndCondition)
		}
		if DayBefore(*out.EndDate, out.StartDate) {
			return RecurrenceRule{}, malformed("end date %s is before start date %s",
				out.EndDate.Format("2006-01-02"), out.StartDate.Format("2006-01-02"))
		}
		out.OccurrenceLimit = 0
	case EndAfterOccurrences:
		if out.OccurrenceLimit < 1 {
			return RecurrenceRule{}, malformed("occurrence limit must be at least 1, got %d", out.OccurrenceLimit)
		}
		out.EndDate = nil
	default:
		return RecurrenceRule{}, malformed("unknown end condition %q", out.EndCondition)
	}

	return out, nil
}

// IsZero reports whether the rule describes no repetition at all.
func (r RecurrenceRule) IsZero() bool {
	return r.Type == "" || r.Type == RecurrenceNone
}

// Describe returns a human-readable description of the rule
func (r RecurrenceRule) Describe() string {
	var base string
	switch r.Type {
	case RecurrenceNone, "":
		return "once"
	case RecurrenceDaily:
		base = every(r.Interval, "day")
		if r.SkipWeekends {
			base += " (weekdays only)"
		}
	case RecurrenceWeekly:
		days := make([]string, len(r.DaysOfWeek))
		for i, wd := range r.DaysOfWeek {
			days[i] = wd.String()[:3]
		}
		base = fmt.Sprintf("%s on %s", every(r.Interval, "week"), strings.Join(days, ","))
	case RecurrenceMonthly:
		days := make([]string, len(r.DaysOfMonth))
		for i, d := range r.DaysOfMonth {
			days[i] = fmt.Sprintf("%d", d)
		}
		base = fmt.Sprintf("%s on day %s", every(r.Interval, "month"), strings.Join(days, ","))
	case RecurrenceYearly:
		if r.DayOfYear != nil {
			base = fmt.Sprintf("%s on %s %d", every(r.Interval, "year"), r.DayOfYear.Month.String()[:3], r.DayOfYear.Day)
		} else {
			base = every(r.Interval, "year")
		}
	case RecurrenceCustom:
		base = every(r.Interval, strings.TrimSuffix(string(r.Unit), "s"))
		if r.SkipWeekends && r.Unit == UnitDays {
			base += " (weekdays only)"
		}
	default:
		return "unknown"
	}

	switch r.EndCondition {
	case EndOnDate:
		if r.EndDate != nil {
			base += " until " + r.EndDate.Format("2006-01-02")
		}
	case EndAfterOccurrences:
		base += fmt.Sprintf(", %d times", r.OccurrenceLimit)
	}
	return base
}

func (r RecurrenceRule) clone() RecurrenceRule {
	out := r
	if r.EndDate != nil {
		d := *r.EndDate
		out.EndDate = &d
	}
	if r.DayOfYear != nil {
		d := *r.DayOfYear
		out.DayOfYear = &d
	}
	if r.DaysOfWeek != nil {
		out.DaysOfWeek = append([]time.Weekday(nil), r.DaysOfWeek...)
	}
	if r.DaysOfMonth != nil {
		out.DaysOfMonth = append([]int(nil), r.DaysOfMonth...)
	}
	return out
}

func every(n int, unit string) string {
	if n <= 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", n, unit)
}

func normalizeWeekdays(days []time.Weekday) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(days))
	var out []time.Weekday
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, malformed("weekday index must be between 0 and 6, got %d", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func normalizeMonthDays(days []int) ([]int, error) {
	seen := make(map[int]bool, len(days))
	var out []int
	for _, d := range days {
		if d < 1 || d > 31 {
			return nil, malformed("day of month must be between 1 and 31, got %d", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{apperrors.ErrMalformedRule}, args...)...)
}
