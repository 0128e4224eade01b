// Package stats derives read-only aggregates from the instances of a task
// series: average completion interval, countdown progress, streaks and point
// totals. Nothing in this package mutates a task.
package stats

import (
	"sort"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
)

// Undefined is rendered in place of a statistic that has too little data.
const Undefined = "—"

// AverageInterval returns the mean gap in days between consecutive
// completions. ok is false with fewer than two completions.
func AverageInterval(tasks []models.Task) (days float64, ok bool) {
	times := completionTimes(tasks)
	if len(times) < 2 {
		return 0, false
	}
	span := times[len(times)-1].Sub(times[0])
	return span.Hours() / 24 / float64(len(times)-1), true
}

// FormatAverageInterval renders the average interval, or Undefined.
func FormatAverageInterval(tasks []models.Task) string {
	days, ok := AverageInterval(tasks)
	if !ok {
		return Undefined
	}
	return formatDays(days)
}

// Progress describes how far the next pending instance is through its
// countdown. Ratio runs from 0 to 1 while on time and above 1 once overdue.
type Progress struct {
	Ratio   float64   `json:"ratio"`
	Overdue bool      `json:"overdue"`
	Start   time.Time `json:"start"`
	Due     time.Time `json:"due"`
	TaskID  string    `json:"task_id"`
}

// ProgressRatio is clamp((now-start)/(due-start), 0, 1.5).
func ProgressRatio(progressStart, due, now time.Time) float64 {
	span := due.Sub(progressStart)
	if span <= 0 {
		switch {
		case now.Before(due):
			return 0
		case now.After(due):
			return constants.MaxProgressRatio
		default:
			return 1
		}
	}
	r := float64(now.Sub(progressStart)) / float64(span)
	if r < 0 {
		return 0
	}
	if r > constants.MaxProgressRatio {
		return constants.MaxProgressRatio
	}
	return r
}

// SeriesProgress computes the progress of the earliest pending instance in
// tasks. The countdown starts at the later of the previous completion and the
// series' effective start. ok is false when nothing is pending.
func SeriesProgress(tasks []models.Task, now time.Time) (Progress, bool) {
	var next *models.Task
	for i := range tasks {
		t := &tasks[i]
		if t.DeletedAt != nil || t.Status != models.StatusPending {
			continue
		}
		if next == nil || t.DueAt().Before(next.DueAt()) {
			next = t
		}
	}
	if next == nil {
		return Progress{}, false
	}

	start := effectiveStart(tasks)
	if times := completionTimes(tasks); len(times) > 0 {
		if last := times[len(times)-1]; last.After(start) {
			start = last
		}
	}

	due := next.DueAt()
	ratio := ProgressRatio(start, due, now)
	return Progress{
		Ratio:   ratio,
		Overdue: ratio > 1.0,
		Start:   start,
		Due:     due,
		TaskID:  next.ID,
	}, true
}

// Streak counts consecutive calendar days with at least one completion,
// walking backward from today. Today is a grace day: while nothing has been
// completed yet today the count starts from yesterday.
func Streak(tasks []models.Task, today time.Time) int {
	days := make(map[time.Time]bool)
	for _, t := range completionTimes(tasks) {
		days[models.DateOf(t.In(today.Location()))] = true
	}

	d := models.DateOf(today)
	if !days[d] {
		d = d.AddDate(0, 0, -1)
	}
	n := 0
	for days[d] {
		n++
		d = d.AddDate(0, 0, -1)
	}
	return n
}

// PenaltyTotal sums postpone penalties over live records. A postponed archive
// shares its history with the child that replaced it and is skipped.
func PenaltyTotal(tasks []models.Task) int {
	total := 0
	for _, t := range tasks {
		if isCurrent(t) {
			total += t.PenaltyTotal()
		}
	}
	return total
}

// TotalPoints sums PointsEarned over live records that are not superseded
// postponed archives.
func TotalPoints(tasks []models.Task) int {
	total := 0
	for _, t := range tasks {
		if isCurrent(t) {
			total += t.PointsEarned
		}
	}
	return total
}

// Summary aggregates a task collection.
type Summary struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	Completed       int     `json:"completed"`
	NotDone         int     `json:"not_done"`
	Postponements   int     `json:"postponements"`
	Points          int     `json:"points"`
	Penalties       int     `json:"penalties"`
	Streak          int     `json:"streak"`
	CompletionRate  float64 `json:"completion_rate"`
	AverageInterval float64 `json:"average_interval_days,omitempty"`
	HasAverage      bool    `json:"has_average"`
}

// Summarize counts the current records in tasks.
func Summarize(tasks []models.Task, now time.Time) Summary {
	var s Summary
	for _, t := range tasks {
		if !isCurrent(t) {
			continue
		}
		s.Total++
		s.Postponements += t.PostponeCount
		switch t.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusNotDone:
			s.NotDone++
		case models.StatusPostponed:
		}
	}
	if finished := s.Completed + s.NotDone; finished > 0 {
		s.CompletionRate = float64(s.Completed) / float64(finished)
	}
	s.Points = TotalPoints(tasks)
	s.Penalties = PenaltyTotal(tasks)
	s.Streak = Streak(tasks, now)
	s.AverageInterval, s.HasAverage = AverageInterval(tasks)
	return s
}

func isCurrent(t models.Task) bool {
	return t.DeletedAt == nil && t.Status != models.StatusPostponed
}

func completionTimes(tasks []models.Task) []time.Time {
	var out []time.Time
	for _, t := range tasks {
		if t.DeletedAt == nil && t.Status == models.StatusCompleted && t.CompletedAt != nil {
			out = append(out, *t.CompletedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// effectiveStart is the rule's start date, or the earliest creation time when
// no instance carries a rule.
func effectiveStart(tasks []models.Task) time.Time {
	var start time.Time
	for _, t := range tasks {
		if t.RecurrenceRule != nil && !t.RecurrenceRule.StartDate.IsZero() {
			return t.RecurrenceRule.StartDate
		}
		if !t.CreatedAt.IsZero() && (start.IsZero() || t.CreatedAt.Before(start)) {
			start = t.CreatedAt
		}
	}
	return start
}
