package utils

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
)

// Day arithmetic below works on "civil" values: UTC midnights carrying only a
// year/month/day, so that adding days never crosses a DST boundary. Results
// are converted back with the rule's start time-of-day and location.

// FirstOccurrence returns the first occurrence of the rule on or after its
// start day.
func FirstOccurrence(rule models.RecurrenceRule) (time.Time, error) {
	if rule.IsZero() {
		return time.Time{}, exhausted("rule does not repeat")
	}

	candidate, err := firstCivil(rule)
	if err != nil {
		return time.Time{}, err
	}
	return checkEnd(rule, at(rule, candidate), 0)
}

// NextOccurrence returns the first occurrence strictly after the calendar day
// of after. occurrencesSoFar is the number of occurrences the series has
// already produced; it is only consulted for after_occurrences rules.
// The result is deterministic for identical inputs.
func NextOccurrence(rule models.RecurrenceRule, after time.Time, occurrencesSoFar int) (time.Time, error) {
	if rule.IsZero() {
		return time.Time{}, exhausted("rule does not repeat")
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	afterDay := civil(after.In(rule.StartDate.Location()))
	startDay := civil(rule.StartDate)

	var candidate time.Time
	var err error
	if afterDay.Before(startDay) {
		candidate, err = firstCivil(rule)
	} else {
		switch rule.Type {
		case models.RecurrenceDaily:
			candidate = skipWeekend(rule, afterDay.AddDate(0, 0, interval))
		case models.RecurrenceWeekly:
			candidate, err = nextWeekly(rule, interval, afterDay, startDay)
		case models.RecurrenceMonthly:
			candidate, err = nextMonthly(rule, interval, afterDay, startDay)
		case models.RecurrenceYearly:
			candidate, err = nextYearly(rule, interval, afterDay, startDay)
		case models.RecurrenceCustom:
			candidate = skipWeekend(rule, addUnits(afterDay, rule.Unit, interval))
		default:
			err = fmt.Errorf("%w: unknown recurrence type %q", apperrors.ErrMalformedRule, rule.Type)
		}
	}
	if err != nil {
		return time.Time{}, err
	}

	return checkEnd(rule, at(rule, candidate), occurrencesSoFar)
}

// Occurrences lists up to limit consecutive occurrences starting with the
// first one. It stops early when the series is exhausted.
func Occurrences(rule models.RecurrenceRule, limit int) ([]time.Time, error) {
	var out []time.Time
	next, err := FirstOccurrence(rule)
	for err == nil && len(out) < limit {
		out = append(out, next)
		next, err = NextOccurrence(rule, next, len(out))
	}
	if err != nil && !isExhausted(err) {
		return nil, err
	}
	return out, nil
}

func firstCivil(rule models.RecurrenceRule) (time.Time, error) {
	startDay := civil(rule.StartDate)
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Type {
	case models.RecurrenceDaily, models.RecurrenceCustom:
		return skipWeekend(rule, startDay), nil
	case models.RecurrenceWeekly:
		return nextWeekly(rule, interval, startDay.AddDate(0, 0, -1), startDay)
	case models.RecurrenceMonthly:
		return nextMonthly(rule, interval, startDay.AddDate(0, 0, -1), startDay)
	case models.RecurrenceYearly:
		return nextYearly(rule, interval, startDay.AddDate(0, 0, -1), startDay)
	default:
		return time.Time{}, fmt.Errorf("%w: unknown recurrence type %q", apperrors.ErrMalformedRule, rule.Type)
	}
}

// nextWeekly scans day by day for a selected weekday in a week whose offset
// from the start week is a multiple of interval. Weeks start on Sunday.
func nextWeekly(rule models.RecurrenceRule, interval int, afterDay, startDay time.Time) (time.Time, error) {
	if len(rule.DaysOfWeek) == 0 {
		return time.Time{}, fmt.Errorf("%w: weekly rule has no weekdays", apperrors.ErrMalformedRule)
	}

	startWeek := weekStart(startDay)
	limit := 7*(interval+1) + 7
	d := afterDay
	for i := 0; i < limit; i++ {
		d = d.AddDate(0, 0, 1)
		if d.Before(startDay) || !hasWeekday(rule.DaysOfWeek, d.Weekday()) {
			continue
		}
		weeks := daysBetween(startWeek, weekStart(d)) / 7
		if weeks%interval == 0 {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no weekly occurrence found after %s", apperrors.ErrMalformedRule, afterDay.Format("2006-01-02"))
}

// nextMonthly walks eligible months and takes the smallest selected day that
// falls after afterDay. Days past the end of a month clamp to its last day.
func nextMonthly(rule models.RecurrenceRule, interval int, afterDay, startDay time.Time) (time.Time, error) {
	if len(rule.DaysOfMonth) == 0 {
		return time.Time{}, fmt.Errorf("%w: monthly rule has no days", apperrors.ErrMalformedRule)
	}

	startIdx := monthIndex(startDay)
	idx := monthIndex(afterDay)
	if idx < startIdx {
		idx = startIdx
	}
	if off := (idx - startIdx) % interval; off != 0 {
		idx += interval - off
	}

	for i := 0; i < 3; i, idx = i+1, idx+interval {
		year, month := idx/12, time.Month(idx%12+1)
		last := models.DaysIn(month, year)
		for _, day := range rule.DaysOfMonth {
			if day > last {
				day = last
			}
			candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if candidate.After(afterDay) && !candidate.Before(startDay) {
				return candidate, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: no monthly occurrence found after %s", apperrors.ErrMalformedRule, afterDay.Format("2006-01-02"))
}

// nextYearly finds the first eligible year whose month/day falls after
// afterDay. Feb 29 clamps to Feb 28 in non-leap years.
func nextYearly(rule models.RecurrenceRule, interval int, afterDay, startDay time.Time) (time.Time, error) {
	doy := rule.DayOfYear
	if doy == nil {
		doy = &models.DayOfYear{Month: startDay.Month(), Day: startDay.Day()}
	}

	startYear := startDay.Year()
	year := afterDay.Year()
	if year < startYear {
		year = startYear
	}
	if off := (year - startYear) % interval; off != 0 {
		year += interval - off
	}

	for i := 0; i < 3; i, year = i+1, year+interval {
		day := doy.Day
		if last := models.DaysIn(doy.Month, year); day > last {
			day = last
		}
		candidate := time.Date(year, doy.Month, day, 0, 0, 0, 0, time.UTC)
		if candidate.After(afterDay) && !candidate.Before(startDay) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no yearly occurrence found after %s", apperrors.ErrMalformedRule, afterDay.Format("2006-01-02"))
}

func checkEnd(rule models.RecurrenceRule, candidate time.Time, occurrencesSoFar int) (time.Time, error) {
	switch rule.EndCondition {
	case models.EndNever, "":
		return candidate, nil
	case models.EndOnDate:
		if rule.EndDate != nil && civil(candidate).After(civil(rule.EndDate.In(candidate.Location()))) {
			return time.Time{}, exhausted(fmt.Sprintf("next occurrence %s is after end date %s",
				candidate.Format("2006-01-02"), rule.EndDate.Format("2006-01-02")))
		}
		return candidate, nil
	case models.EndAfterOccurrences:
		if occurrencesSoFar >= rule.OccurrenceLimit {
			return time.Time{}, exhausted(fmt.Sprintf("%d of %d occurrences produced", occurrencesSoFar, rule.OccurrenceLimit))
		}
		return candidate, nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown end condition %q", apperrors.ErrMalformedRule, rule.EndCondition)
	}
}

// skipWeekend moves a Saturday or Sunday forward to Monday when the rule asks
// for it. Only daily rules and custom rules counted in days skip weekends.
func skipWeekend(rule models.RecurrenceRule, d time.Time) time.Time {
	if !rule.SkipWeekends {
		return d
	}
	if rule.Type == models.RecurrenceCustom && rule.Unit != models.UnitDays {
		return d
	}
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func addUnits(d time.Time, unit models.Unit, n int) time.Time {
	switch unit {
	case models.UnitWeeks:
		return d.AddDate(0, 0, 7*n)
	case models.UnitMonths:
		return AddMonthsClamped(d, n)
	case models.UnitYears:
		return AddMonthsClamped(d, 12*n)
	default:
		return d.AddDate(0, 0, n)
	}
}

// AddMonthsClamped adds n months to d, clamping the day to the length of the
// target month instead of overflowing into the next one.
func AddMonthsClamped(d time.Time, n int) time.Time {
	idx := d.Year()*12 + int(d.Month()) - 1 + n
	year, month := idx/12, time.Month(idx%12+1)
	day := d.Day()
	if last := models.DaysIn(month, year); day > last {
		day = last
	}
	h, m, s := d.Clock()
	return time.Date(year, month, day, h, m, s, d.Nanosecond(), d.Location())
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// at places a civil day at the start date's time-of-day and location.
func at(rule models.RecurrenceRule, day time.Time) time.Time {
	h, m, s := rule.StartDate.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, rule.StartDate.Nanosecond(), rule.StartDate.Location())
}

func weekStart(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func monthIndex(d time.Time) int {
	return d.Year()*12 + int(d.Month()) - 1
}

func hasWeekday(days []time.Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

func exhausted(detail string) error {
	return fmt.Errorf("%w: %s", apperrors.ErrRecurrenceExhausted, detail)
}

func isExhausted(err error) bool {
	return err != nil && errors.Is(err, apperrors.ErrRecurrenceExhausted)
}
