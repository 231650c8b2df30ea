package entities

import "time"

// MaterialCode represents a unique product or material identifier
type MaterialCode string

// ProcessName represents a production process (packing, drilling, assembly, ...)
type ProcessName string

// Quantity represents an integer quantity value for discrete manufacturing units
type Quantity int64

// DateKey renders a calendar day as its canonical storage key.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Day truncates a time to UTC midnight. All scheduling dates are day-granular.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the calendar day after d.
func NextDay(d time.Time) time.Time {
	return Day(d).Add(24 * time.Hour)
}
