package report

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/username/feiertage-export/internal/holiday"
	"github.com/username/feiertage-export/internal/timeline"
)

// equalWeights sums to exactly 1.0 (1/16 is a binary-exact fraction),
// which keeps expected values in nationwide tests simple
func equalWeights() map[holiday.StateCode]float64 {
	weights := make(map[holiday.StateCode]float64, 16)
	for _, state := range holiday.States() {
		weights[state] = 0.0625
	}
	return weights
}

func mustAxis(t *testing.T, start, end time.Time) []timeline.Day {
	t.Helper()
	axis, err := timeline.BuildAxis(start, end)
	if err != nil {
		t.Fatalf("BuildAxis() error = %v", err)
	}
	return axis
}

func mustLookup(t *testing.T, includeSpecial bool, startYear, endYear int) Lookup {
	t.Helper()
	lookup, err := BuildLookup(holiday.NewRulesetSource(includeSpecial), startYear, endYear)
	if err != nil {
		t.Fatalf("BuildLookup() error = %v", err)
	}
	return lookup
}

func TestAggregate_NationwideDailyScenario(t *testing.T) {
	// 2023-01-01 .. 2023-01-08, daily, nationwide, counting Sundays:
	// Jan 1 is New Year (and a Sunday), Jan 8 is a plain Sunday
	axis := mustAxis(t,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, false, 2023, 2023)

	table, err := Aggregate(axis, lookup, equalWeights(), Options{
		TimeAgg:      TimeAggDay,
		GeoAgg:       GeoAggDE,
		CountSundays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(table.Rows) != 8 {
		t.Fatalf("row count = %d, want 8", len(table.Rows))
	}

	byBucket := make(map[string]Row)
	for _, row := range table.Rows {
		if row.GeoBucket != "DE" {
			t.Errorf("geo bucket = %q, want DE", row.GeoBucket)
		}
		byBucket[row.TimeBucket] = row
	}

	// New Year: public holiday in every state, counted once despite
	// also being a Sunday
	jan1 := byBucket["2023-01-01"]
	if jan1.HolidayCount != 1 {
		t.Errorf("Jan 1 count = %v, want 1", jan1.HolidayCount)
	}
	if !jan1.IncludesSunday {
		t.Error("Jan 1 IncludesSunday = false, want true")
	}

	// plain Sunday
	jan8 := byBucket["2023-01-08"]
	if jan8.HolidayCount != 1 {
		t.Errorf("Jan 8 count = %v, want 1", jan8.HolidayCount)
	}
	if !jan8.IncludesSunday {
		t.Error("Jan 8 IncludesSunday = false, want true")
	}

	// Heilige Drei Koenige (Jan 6, a Friday) is a holiday in 3 of 16
	// states, so the weighted nationwide count is 3/16
	jan6 := byBucket["2023-01-06"]
	if jan6.HolidayCount != 0.1875 {
		t.Errorf("Jan 6 count = %v, want 0.1875", jan6.HolidayCount)
	}

	// an ordinary weekday
	jan3 := byBucket["2023-01-03"]
	if jan3.HolidayCount != 0 {
		t.Errorf("Jan 3 count = %v, want 0", jan3.HolidayCount)
	}
	if jan3.IncludesSunday {
		t.Error("Jan 3 IncludesSunday = true, want false")
	}
}

func TestAggregate_WeeklyCollapse(t *testing.T) {
	// the same 8 days span ISO weeks 2022-W52 (Jan 1) and 2023-W01
	axis := mustAxis(t,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, false, 2023, 2023)

	table, err := Aggregate(axis, lookup, equalWeights(), Options{
		TimeAgg:      TimeAggWeek,
		GeoAgg:       GeoAggDE,
		CountSundays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("row count = %d, want 2: %+v", len(table.Rows), table.Rows)
	}

	if table.Rows[0].TimeBucket != "2022-W52" || table.Rows[1].TimeBucket != "2023-W01" {
		t.Fatalf("buckets = %q, %q", table.Rows[0].TimeBucket, table.Rows[1].TimeBucket)
	}

	// W52 holds only Jan 1 (New Year): 1
	if table.Rows[0].HolidayCount != 1 {
		t.Errorf("W52 count = %v, want 1", table.Rows[0].HolidayCount)
	}

	// W01 holds Jan 2-8: Heilige Drei Koenige (3/16) + Sunday Jan 8 (1)
	if table.Rows[1].HolidayCount != 1.1875 {
		t.Errorf("W01 count = %v, want 1.1875", table.Rows[1].HolidayCount)
	}
	if !table.Rows[1].IncludesSunday {
		t.Error("W01 IncludesSunday = false, want true")
	}
}

func TestAggregate_StateGeo(t *testing.T) {
	// single day: one row per state, sorted by state code
	axis := mustAxis(t,
		time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, false, 2023, 2023)

	table, err := Aggregate(axis, lookup, nil, Options{
		TimeAgg: TimeAggDay,
		GeoAgg:  GeoAggState,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(table.Rows) != 16 {
		t.Fatalf("row count = %d, want 16", len(table.Rows))
	}

	counts := make(map[string]float64)
	for i, row := range table.Rows {
		if i > 0 && table.Rows[i-1].GeoBucket >= row.GeoBucket {
			t.Errorf("rows not sorted by state: %s before %s", table.Rows[i-1].GeoBucket, row.GeoBucket)
		}
		counts[row.GeoBucket] = row.HolidayCount
	}

	// Heilige Drei Koenige: BW, BY, ST only
	for _, state := range holiday.States() {
		want := 0.0
		if state == holiday.BW || state == holiday.BY || state == holiday.ST {
			want = 1
		}
		if counts[string(state)] != want {
			t.Errorf("count[%s] = %v, want %v", state, counts[string(state)], want)
		}
	}
}

func TestAggregate_HolidayOnSundayNotDoubleCounted(t *testing.T) {
	// 2023-01-01 is both New Year and a Sunday
	axis := mustAxis(t,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, false, 2023, 2023)

	table, err := Aggregate(axis, lookup, nil, Options{
		TimeAgg:      TimeAggDay,
		GeoAgg:       GeoAggState,
		CountSundays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	for _, row := range table.Rows {
		if row.HolidayCount != 1 {
			t.Errorf("count[%s] = %v, want 1 (no double count)", row.GeoBucket, row.HolidayCount)
		}
		if !row.IncludesSunday {
			t.Errorf("IncludesSunday[%s] = false, want true", row.GeoBucket)
		}
	}
}

func TestAggregate_PublicPresenceNotNameCount(t *testing.T) {
	// two holiday names on the same date must still count once
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	lookup := Lookup{}
	for _, state := range holiday.States() {
		lookup[state] = map[string]Marks{
			"2023-06-01": {Public: true},
		}
	}

	axis := mustAxis(t, date, date)
	table, err := Aggregate(axis, lookup, nil, Options{
		TimeAgg: TimeAggDay,
		GeoAgg:  GeoAggState,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	for _, row := range table.Rows {
		if row.HolidayCount != 1 {
			t.Errorf("count[%s] = %v, want 1", row.GeoBucket, row.HolidayCount)
		}
	}
}

func TestAggregate_SpecialHolidays(t *testing.T) {
	// Silvester 2023 (Dec 31, a Sunday) and Nikolaustag (Dec 6, a
	// Wednesday) are special observances, not public holidays
	axis := mustAxis(t,
		time.Date(2023, 12, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 6, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, true, 2023, 2023)

	table, err := Aggregate(axis, lookup, nil, Options{
		TimeAgg:         TimeAggDay,
		GeoAgg:          GeoAggState,
		SpecialHolidays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	for _, row := range table.Rows {
		if row.HolidayCount != 1 {
			t.Errorf("Nikolaustag count[%s] = %v, want 1", row.GeoBucket, row.HolidayCount)
		}
		if !row.IncludesSpecial {
			t.Errorf("IncludesSpecial[%s] = false, want true", row.GeoBucket)
		}
	}

	// with specials disabled in the options the same lookup yields 0
	table, err = Aggregate(axis, lookup, nil, Options{
		TimeAgg: TimeAggDay,
		GeoAgg:  GeoAggState,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	for _, row := range table.Rows {
		if row.HolidayCount != 0 {
			t.Errorf("count[%s] = %v, want 0", row.GeoBucket, row.HolidayCount)
		}
		if row.IncludesSpecial {
			t.Errorf("IncludesSpecial[%s] = true, want false", row.GeoBucket)
		}
	}
}

func TestAggregate_OpenSaleDays(t *testing.T) {
	// first week of May 2023: May 1 is a holiday, May 7 a Sunday,
	// leaving 5 open-sale days in every state
	axis := mustAxis(t,
		time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 5, 7, 0, 0, 0, 0, time.UTC))
	lookup := mustLookup(t, false, 2023, 2023)

	table, err := Aggregate(axis, lookup, nil, Options{
		TimeAgg:      TimeAggWeek,
		GeoAgg:       GeoAggState,
		OpenSaleDays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(table.Rows) != 16 {
		t.Fatalf("row count = %d, want 16", len(table.Rows))
	}
	for _, row := range table.Rows {
		if row.OpenSaleDays != 5 {
			t.Errorf("OpenSaleDays[%s] = %v, want 5", row.GeoBucket, row.OpenSaleDays)
		}
	}
}

func TestAggregate_RoundTrip(t *testing.T) {
	// aggregating day/state and then summing by hand must match a
	// direct week/de aggregation
	start := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC)
	axis := mustAxis(t, start, end)
	lookup := mustLookup(t, true, 2023, 2023)
	weights := equalWeights()

	daily, err := Aggregate(axis, lookup, weights, Options{
		TimeAgg:         TimeAggDay,
		GeoAgg:          GeoAggState,
		CountSundays:    true,
		SpecialHolidays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate(day/state) error = %v", err)
	}

	weekly, err := Aggregate(axis, lookup, weights, Options{
		TimeAgg:         TimeAggWeek,
		GeoAgg:          GeoAggDE,
		CountSundays:    true,
		SpecialHolidays: true,
	})
	if err != nil {
		t.Fatalf("Aggregate(week/de) error = %v", err)
	}

	manual := make(map[string]float64)
	for _, row := range daily.Rows {
		date, err := time.Parse("2006-01-02", row.TimeBucket)
		if err != nil {
			t.Fatalf("bad day bucket %q: %v", row.TimeBucket, err)
		}
		day := timeline.NewDay(date)
		week := fmt.Sprintf("%04d-W%02d", day.ISOYear, day.ISOWeek)
		manual[week] += weights[holiday.StateCode(row.GeoBucket)] * row.HolidayCount
	}

	if len(manual) != len(weekly.Rows) {
		t.Fatalf("bucket count mismatch: manual %d, direct %d", len(manual), len(weekly.Rows))
	}
	for _, row := range weekly.Rows {
		want, ok := manual[row.TimeBucket]
		if !ok {
			t.Errorf("bucket %s missing from manual aggregation", row.TimeBucket)
			continue
		}
		if math.Abs(row.HolidayCount-want) > 1e-9 {
			t.Errorf("bucket %s: direct %v, manual %v", row.TimeBucket, row.HolidayCount, want)
		}
	}
}

func TestAggregate_EmptyAxis(t *testing.T) {
	_, err := Aggregate(nil, Lookup{}, nil, Options{
		TimeAgg: TimeAggDay,
		GeoAgg:  GeoAggState,
	})
	if !errors.Is(err, ErrEmptyRange) {
		t.Errorf("Aggregate(empty) error = %v, want ErrEmptyRange", err)
	}
}

func TestAggregate_InvalidOptions(t *testing.T) {
	axis := mustAxis(t,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		opts Options
	}{
		{"bad time_agg", Options{TimeAgg: "month", GeoAgg: GeoAggState}},
		{"bad geo_agg", Options{TimeAgg: TimeAggDay, GeoAgg: "eu"}},
		{"empty options", Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Aggregate(axis, Lookup{}, nil, tt.opts); err == nil {
				t.Errorf("Aggregate(%+v) expected error, got nil", tt.opts)
			}
		})
	}
}

func TestBuildLookup(t *testing.T) {
	lookup := mustLookup(t, true, 2023, 2023)

	if len(lookup) != 16 {
		t.Fatalf("lookup has %d states, want 16", len(lookup))
	}

	tests := []struct {
		state holiday.StateCode
		date  string
		want  Marks
	}{
		{holiday.BY, "2023-01-06", Marks{Public: true}},
		{holiday.BE, "2023-01-06", Marks{}},
		{holiday.BE, "2023-03-08", Marks{Public: true}},
		{holiday.BY, "2023-12-31", Marks{Special: true}},
		{holiday.NW, "2023-01-01", Marks{Public: true}},
		{holiday.NW, "2023-07-12", Marks{}},
	}

	for _, tt := range tests {
		got := lookup[tt.state][tt.date]
		if got != tt.want {
			t.Errorf("lookup[%s][%s] = %+v, want %+v", tt.state, tt.date, got, tt.want)
		}
	}
}

func TestBuildLookup_UnsupportedYear(t *testing.T) {
	_, err := BuildLookup(holiday.NewRulesetSource(false), 1980, 1985)
	if !errors.Is(err, holiday.ErrUnsupportedYear) {
		t.Errorf("BuildLookup(1980) error = %v, want ErrUnsupportedYear", err)
	}
}

func TestTable_HeaderAndFields(t *testing.T) {
	row := Row{
		TimeBucket:      "2023-01-01",
		GeoBucket:       "DE",
		HolidayCount:    1,
		IncludesSunday:  true,
		IncludesSpecial: false,
		OpenSaleDays:    0,
	}

	tests := []struct {
		name       string
		opts       Options
		wantHeader []string
		wantFields []string
	}{
		{
			name:       "base columns",
			opts:       Options{TimeAgg: TimeAggDay, GeoAgg: GeoAggDE},
			wantHeader: []string{"time_bucket", "geo_bucket", "holiday_count"},
			wantFields: []string{"2023-01-01", "DE", "1"},
		},
		{
			name:       "all columns",
			opts:       Options{TimeAgg: TimeAggDay, GeoAgg: GeoAggDE, CountSundays: true, SpecialHolidays: true, OpenSaleDays: true},
			wantHeader: []string{"time_bucket", "geo_bucket", "holiday_count", "includes_sunday", "includes_special", "open_sale_days"},
			wantFields: []string{"2023-01-01", "DE", "1", "true", "false", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{Options: tt.opts, Rows: []Row{row}}

			if got := table.Header(); !reflect.DeepEqual(got, tt.wantHeader) {
				t.Errorf("Header() = %v, want %v", got, tt.wantHeader)
			}
			if got := table.Fields(row); !reflect.DeepEqual(got, tt.wantFields) {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{1, "1"},
		{0, "0"},
		{0.1875, "0.1875"},
		{2.5, "2.5"},
	}

	for _, tt := range tests {
		if got := FormatCount(tt.input); got != tt.want {
			t.Errorf("FormatCount(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
