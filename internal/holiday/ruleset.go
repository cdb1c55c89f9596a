package holiday

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/feiertage-export/pkg/dateutil"
)

// The ruleset covers post-reunification Germany. The state table below
// is meaningless before 1990, and no rule changes are encoded past 2100.
const (
	MinYear = 1990
	MaxYear = 2100
)

// RulesetSource computes German public holidays from a static ruleset of
// fixed dates and Easter offsets. It is a pure function of (year, state).
type RulesetSource struct {
	includeSpecial bool
}

// NewRulesetSource creates a RulesetSource. When includeSpecial is set,
// well-known non-public observances are returned alongside the public
// holidays, tagged Record.Special.
func NewRulesetSource(includeSpecial bool) *RulesetSource {
	return &RulesetSource{includeSpecial: includeSpecial}
}

// fixed-date public holidays observed in every state
var nationwideFixed = []struct {
	name  string
	month time.Month
	day   int
}{
	{"Neujahrstag", time.January, 1},
	{"Maifeiertag", time.May, 1},
	{"Tag der Deutschen Einheit", time.October, 3},
	{"Erster Weihnachtstag", time.December, 25},
	{"Zweiter Weihnachtstag", time.December, 26},
}

// Easter-relative public holidays observed in every state
var nationwideEaster = []struct {
	name   string
	offset int // days relative to Easter Sunday
}{
	{"Karfreitag", -2},
	{"Ostermontag", 1},
	{"Christi Himmelfahrt", 39},
	{"Pfingstmontag", 50},
}

// stateRule is a holiday observed only in some states. from maps a state
// to the first year the holiday was observed there; zero means since the
// beginning of the supported range.
type stateRule struct {
	name   string
	date   func(year int, easter time.Time) time.Time
	states []StateCode
	from   map[StateCode]int
}

func fixedDate(month time.Month, day int) func(int, time.Time) time.Time {
	return func(year int, _ time.Time) time.Time {
		return dateutil.Date(year, month, day)
	}
}

func easterOffset(days int) func(int, time.Time) time.Time {
	return func(_ int, easter time.Time) time.Time {
		return easter.AddDate(0, 0, days)
	}
}

var stateRules = []stateRule{
	{
		name:   "Heilige Drei Könige",
		date:   fixedDate(time.January, 6),
		states: []StateCode{BW, BY, ST},
	},
	{
		name:   "Frauentag",
		date:   fixedDate(time.March, 8),
		states: []StateCode{BE},
		from:   map[StateCode]int{BE: 2019},
	},
	{
		name:   "Ostersonntag",
		date:   easterOffset(0),
		states: []StateCode{BB, HE},
	},
	{
		name:   "Pfingstsonntag",
		date:   easterOffset(49),
		states: []StateCode{BB, HE},
	},
	{
		name:   "Fronleichnam",
		date:   easterOffset(60),
		states: []StateCode{BW, BY, HE, NW, RP, SL, SN, TH},
	},
	{
		name:   "Mariä Himmelfahrt",
		date:   fixedDate(time.August, 15),
		states: []StateCode{BY, SL},
	},
	{
		name:   "Weltkindertag",
		date:   fixedDate(time.September, 20),
		states: []StateCode{TH},
		from:   map[StateCode]int{TH: 2019},
	},
	{
		// in the northern states only since 2018; see also the 2017
		// one-off handled in Holidays
		name:   "Reformationstag",
		date:   fixedDate(time.October, 31),
		states: []StateCode{BB, HB, HH, MV, NI, SN, ST, SH, TH},
		from:   map[StateCode]int{HB: 2018, HH: 2018, NI: 2018, SH: 2018},
	},
	{
		name:   "Allerheiligen",
		date:   fixedDate(time.November, 1),
		states: []StateCode{BW, BY, NW, RP, SL},
	},
	{
		name:   "Buß- und Bettag",
		date:   bussUndBettag,
		states: []StateCode{BY, SN},
	},
}

// non-public observances, observed nationwide
var specialRules = []struct {
	name string
	date func(year int, easter time.Time) time.Time
}{
	{"Valentinstag", fixedDate(time.February, 14)},
	{"Rosenmontag", easterOffset(-48)},
	{"Fastnachtsdienstag", easterOffset(-47)},
	{"Muttertag", muttertag},
	{"Nikolaustag", fixedDate(time.December, 6)},
	{"Silvester", fixedDate(time.December, 31)},
}

// Holidays returns the holidays for the given year and state. For
// Nationwide only the holidays observed in every state are returned.
func (s *RulesetSource) Holidays(year int, state StateCode) ([]Record, error) {
	if year < MinYear || year > MaxYear {
		return nil, fmt.Errorf("%w: %d (supported %d-%d)", ErrUnsupportedYear, year, MinYear, MaxYear)
	}
	if state != Nationwide && !IsValid(state) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRegion, state)
	}

	easter := EasterSunday(year)
	var records []Record

	add := func(name string, date time.Time, special bool) {
		records = append(records, Record{Date: date, Name: name, State: state, Special: special})
	}

	for _, h := range nationwideFixed {
		add(h.name, dateutil.Date(year, h.month, h.day), false)
	}
	for _, h := range nationwideEaster {
		add(h.name, easter.AddDate(0, 0, h.offset), false)
	}

	hasReformationstag := false
	if state != Nationwide {
		for _, rule := range stateRules {
			if !rule.applies(year, state) {
				continue
			}
			if rule.name == "Reformationstag" {
				hasReformationstag = true
			}
			add(rule.name, rule.date(year, easter), false)
		}
	}

	// 31 October 2017 was Reformationstag in all of Germany, once, for
	// the 500th anniversary of the Reformation
	if year == 2017 && !hasReformationstag {
		add("Reformationstag", dateutil.Date(2017, time.October, 31), false)
	}

	if s.includeSpecial {
		for _, h := range specialRules {
			add(h.name, h.date(year, easter), true)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Name < records[j].Name
	})

	return records, nil
}

func (r stateRule) applies(year int, state StateCode) bool {
	for _, s := range r.states {
		if s != state {
			continue
		}
		if from, ok := r.from[state]; ok && year < from {
			return false
		}
		return true
	}
	return false
}

// EasterSunday calculates Easter Sunday for the given year using the
// Meeus/Jones/Butcher algorithm
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return dateutil.Date(year, time.Month(month), day)
}

// bussUndBettag is the Wednesday between 16 and 22 November
func bussUndBettag(year int, _ time.Time) time.Time {
	for day := 16; day <= 22; day++ {
		date := dateutil.Date(year, time.November, day)
		if date.Weekday() == time.Wednesday {
			return date
		}
	}
	// unreachable: any 7-day window contains a Wednesday
	return dateutil.Date(year, time.November, 16)
}

// muttertag is the second Sunday of May (the Sunday between 8 and 14 May)
func muttertag(year int, _ time.Time) time.Time {
	for day := 8; day <= 14; day++ {
		date := dateutil.Date(year, time.May, day)
		if date.Weekday() == time.Sunday {
			return date
		}
	}
	return dateutil.Date(year, time.May, 8)
}
