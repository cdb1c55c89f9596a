// Package report joins the date axis against per-state holiday data and
// aggregates it into the export table.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/username/feiertage-export/internal/holiday"
	"github.com/username/feiertage-export/internal/timeline"
)

// TimeAgg is the granularity of the output time axis
type TimeAgg string

const (
	TimeAggDay  TimeAgg = "day"
	TimeAggWeek TimeAgg = "week"
)

// GeoAgg is the granularity of the output geography axis
type GeoAgg string

const (
	GeoAggState GeoAgg = "state"
	GeoAggDE    GeoAgg = "de"
)

// ErrEmptyRange is returned when the date axis is empty. BuildAxis never
// produces an empty axis, this is a defensive check.
var ErrEmptyRange = errors.New("empty date axis")

// Options controls how the report is aggregated
type Options struct {
	TimeAgg         TimeAgg
	GeoAgg          GeoAgg
	CountSundays    bool
	SpecialHolidays bool
	OpenSaleDays    bool
}

// Validate checks the enumerated options
func (o Options) Validate() error {
	switch o.TimeAgg {
	case TimeAggDay, TimeAggWeek:
	default:
		return fmt.Errorf("time_agg must be %q or %q, got %q", TimeAggDay, TimeAggWeek, o.TimeAgg)
	}
	switch o.GeoAgg {
	case GeoAggState, GeoAggDE:
	default:
		return fmt.Errorf("geo_agg must be %q or %q, got %q", GeoAggState, GeoAggDE, o.GeoAgg)
	}
	return nil
}

// Marks flags a single date in a single state
type Marks struct {
	Public  bool
	Special bool
}

// Lookup maps state code -> date key (YYYY-MM-DD) -> marks.
// A date carries Public presence, not a name count: several holiday
// names on the same date still mark it once.
type Lookup map[holiday.StateCode]map[string]Marks

// BuildLookup queries the holiday source for all 16 states over the
// given year span and indexes the records by state and date
func BuildLookup(src holiday.Source, startYear, endYear int) (Lookup, error) {
	lookup := make(Lookup, 16)

	for _, state := range holiday.States() {
		marks := make(map[string]Marks)
		for year := startYear; year <= endYear; year++ {
			records, err := src.Holidays(year, state)
			if err != nil {
				return nil, fmt.Errorf("holiday lookup for %s/%d failed: %w", state, year, err)
			}
			for _, rec := range records {
				key := rec.Date.Format("2006-01-02")
				m := marks[key]
				if rec.Special {
					m.Special = true
				} else {
					m.Public = true
				}
				marks[key] = m
			}
		}
		lookup[state] = marks
	}

	return lookup, nil
}

// Row is one aggregated output row
type Row struct {
	TimeBucket      string // date (2023-01-01) or ISO week (2023-W01)
	GeoBucket       string // state code or DE
	HolidayCount    float64
	IncludesSunday  bool
	IncludesSpecial bool
	OpenSaleDays    float64
}

// Table is the finished report, sorted by time bucket then geo bucket
type Table struct {
	Options Options
	Rows    []Row
}

// Aggregate computes the report table. weights holds the population share
// of each state and is only consulted for nationwide aggregation, where
// the DE count of a bucket is the population-weighted sum of the per-state
// counts (the shares sum to 1, so a holiday observed everywhere counts 1).
func Aggregate(axis []timeline.Day, lookup Lookup, weights map[holiday.StateCode]float64, opts Options) (*Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(axis) == 0 {
		return nil, ErrEmptyRange
	}

	type cell struct {
		count   float64
		open    float64
		sunday  bool
		special bool
	}
	cells := make(map[string]map[string]*cell) // time bucket -> geo bucket
	states := holiday.States()

	for _, day := range axis {
		bucket := timeBucket(day, opts.TimeAgg)
		dateKey := day.Key()

		for _, state := range states {
			marks := lookup[state][dateKey]

			// presence, never double-counted: a public holiday on a
			// Sunday or on a special date still counts once
			var count float64
			switch {
			case marks.Public:
				count = 1
			case opts.CountSundays && day.Sunday:
				count = 1
			case opts.SpecialHolidays && marks.Special:
				count = 1
			}

			// open-sale day: neither Sunday nor public holiday
			var open float64
			if !day.Sunday && !marks.Public {
				open = 1
			}

			geo := string(state)
			weight := 1.0
			if opts.GeoAgg == GeoAggDE {
				geo = string(holiday.Nationwide)
				weight = weights[state]
			}

			byGeo := cells[bucket]
			if byGeo == nil {
				byGeo = make(map[string]*cell)
				cells[bucket] = byGeo
			}
			c := byGeo[geo]
			if c == nil {
				c = &cell{}
				byGeo[geo] = c
			}

			c.count += weight * count
			c.open += weight * open
			if opts.CountSundays && day.Sunday {
				c.sunday = true
			}
			if opts.SpecialHolidays && marks.Special {
				c.special = true
			}
		}
	}

	rows := make([]Row, 0, len(cells))
	for bucket, byGeo := range cells {
		for geo, c := range byGeo {
			rows = append(rows, Row{
				TimeBucket:      bucket,
				GeoBucket:       geo,
				HolidayCount:    roundCount(c.count),
				IncludesSunday:  c.sunday,
				IncludesSpecial: c.special,
				OpenSaleDays:    roundCount(c.open),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TimeBucket != rows[j].TimeBucket {
			return rows[i].TimeBucket < rows[j].TimeBucket
		}
		return rows[i].GeoBucket < rows[j].GeoBucket
	})

	return &Table{Options: opts, Rows: rows}, nil
}

// Header returns the CSV column names for the enabled options
func (t *Table) Header() []string {
	header := []string{"time_bucket", "geo_bucket", "holiday_count"}
	if t.Options.CountSundays {
		header = append(header, "includes_sunday")
	}
	if t.Options.SpecialHolidays {
		header = append(header, "includes_special")
	}
	if t.Options.OpenSaleDays {
		header = append(header, "open_sale_days")
	}
	return header
}

// Fields renders one row in the same column order as Header
func (t *Table) Fields(r Row) []string {
	fields := []string{r.TimeBucket, r.GeoBucket, FormatCount(r.HolidayCount)}
	if t.Options.CountSundays {
		fields = append(fields, strconv.FormatBool(r.IncludesSunday))
	}
	if t.Options.SpecialHolidays {
		fields = append(fields, strconv.FormatBool(r.IncludesSpecial))
	}
	if t.Options.OpenSaleDays {
		fields = append(fields, FormatCount(r.OpenSaleDays))
	}
	return fields
}

// timeBucket labels a day's bucket. Both labels sort lexicographically in
// chronological order.
func timeBucket(day timeline.Day, agg TimeAgg) string {
	if agg == TimeAggWeek {
		return fmt.Sprintf("%04d-W%02d", day.ISOYear, day.ISOWeek)
	}
	return day.Key()
}

// roundCount removes the float noise that population-weighted sums
// accumulate (the weights sum to 1 only within 1e-16)
func roundCount(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// FormatCount renders a count without trailing zeros: "1" for whole
// numbers, "0.133522204" for weighted shares
func FormatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
