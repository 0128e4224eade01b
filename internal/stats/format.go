package stats

import (
	"fmt"
	"time"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

// FormatDuration renders d in the largest fitting unit pair. The sign is
// ignored so that countdowns and elapsed times share one code path.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < day:
		return pair(int(d/time.Hour), "h", int(d%time.Hour/time.Minute), "m")
	case d < week:
		return pair(int(d/day), "d", int(d%day/time.Hour), "h")
	case d < month:
		return pair(int(d/week), "w", int(d%week/day), "d")
	case d < year:
		return fmt.Sprintf("%dmo", int(d/month))
	default:
		return fmt.Sprintf("%dy", int(d/year))
	}
}

// TimeUntil formats the time left before target.
func TimeUntil(target, now time.Time) string {
	return FormatDuration(target.Sub(now))
}

// TimeSince formats the time elapsed since past.
func TimeSince(past, now time.Time) string {
	return FormatDuration(now.Sub(past))
}

func pair(major int, majorUnit string, minor int, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s %d%s", major, majorUnit, minor, minorUnit)
}

func formatDays(days float64) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%.1f days", days)
}
