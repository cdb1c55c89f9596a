package dateutil

import (
	"fmt"
	"time"
)

// Date returns a normalized calendar date (00:00:00 UTC).
// All dates in this program are handled at day precision in UTC, so
// holiday dates and axis days compare with Equal.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay truncates the given time to its calendar date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// StartOfWeek returns the Monday of the week for the given date
func StartOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	daysFromMonday := weekday - 1
	return StartOfDay(date.AddDate(0, 0, -daysFromMonday))
}

// ISOWeek returns the ISO 8601 week-based year and week number for the
// given date (weeks start on Monday, week 1 contains the year's first
// Thursday)
func ISOWeek(date time.Time) (year int, week int) {
	year, week = date.ISOWeek()
	return
}

// IsSunday returns true if the date falls on a Sunday
func IsSunday(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

// DaysBetween returns the number of calendar days from a to b (b - a).
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// ParseDate parses a date string in ISO 8601 format (YYYY-MM-DD)
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}
