package models

import "time"

// Calendar helpers shared by the models and the occurrence calculator. All
// comparisons are calendar-day granular in the location of the first argument.

// DateOf truncates t to midnight of its calendar day, keeping its location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(m time.Month, y int) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// DayBefore reports whether a's calendar day is strictly before b's.
func DayBefore(a, b time.Time) bool {
	return dayKey(a) < dayKey(b.In(a.Location()))
}

// DayAfter reports whether a's calendar day is strictly after b's.
func DayAfter(a, b time.Time) bool {
	return dayKey(a) > dayKey(b.In(a.Location()))
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
