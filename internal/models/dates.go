package models

import "time"

const DateLayout = "2006-01-02"

// Instant normalizes a timestamp to UTC with second resolution.
func Instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CivilDate returns the UTC midnight of t's calendar day.
func CivilDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysBetween returns the whole days from a to b (b - a) on the civil calendar.
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)).Hours() / 24)
}
