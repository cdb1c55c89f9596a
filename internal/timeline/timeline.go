// Package timeline builds the daily date axis a report is computed over.
package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/feiertage-export/pkg/dateutil"
)

// ErrInvalidRange is returned when the start date is after the end date
var ErrInvalidRange = errors.New("start date after end date")

// Day is one calendar day on the axis, derived purely from its date
type Day struct {
	Date    time.Time
	Year    int
	ISOYear int // ISO 8601 week-based year, differs from Year around January 1
	ISOWeek int
	Weekday time.Weekday
	Sunday  bool
}

// Key returns the day's date formatted as YYYY-MM-DD
func (d Day) Key() string {
	return d.Date.Format("2006-01-02")
}

// NewDay derives a Day from a date
func NewDay(date time.Time) Day {
	date = dateutil.StartOfDay(date)
	isoYear, isoWeek := dateutil.ISOWeek(date)
	return Day{
		Date:    date,
		Year:    date.Year(),
		ISOYear: isoYear,
		ISOWeek: isoWeek,
		Weekday: date.Weekday(),
		Sunday:  dateutil.IsSunday(date),
	}
}

// BuildAxis returns one Day per calendar date in [start, end], inclusive,
// in ascending order
func BuildAxis(start, end time.Time) ([]Day, error) {
	start = dateutil.StartOfDay(start)
	end = dateutil.StartOfDay(end)

	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s",
			ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	days := make([]Day, 0, dateutil.DaysBetween(start, end)+1)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		days = append(days, NewDay(date))
	}

	return days, nil
}
