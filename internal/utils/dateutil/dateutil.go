// Package dateutil centralizes the UTC calendar-day arithmetic used by the
// accrual scheduler. All "one return per day" decisions are made against UTC
// day boundaries, never local time.
package dateutil

import "time"

// StartOfUTCDay returns midnight UTC for the calendar date containing t.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextUTCDay returns midnight UTC of the calendar day after t.
func NextUTCDay(t time.Time) time.Time {
	return StartOfUTCDay(t).AddDate(0, 0, 1)
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// It is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	da := StartOfUTCDay(a)
	db := StartOfUTCDay(b)
	return int(db.Sub(da).Hours() / 24)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar date.
func SameUTCDay(a, b time.Time) bool {
	return StartOfUTCDay(a).Equal(StartOfUTCDay(b))
}
