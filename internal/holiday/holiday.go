package holiday

import (
	"errors"
	"sort"
	"time"
)

// StateCode is the official two-letter code of a German federal state
type StateCode string

const (
	BW StateCode = "BW" // Baden-Wuerttemberg
	BY StateCode = "BY" // Bayern
	BE StateCode = "BE" // Berlin
	BB StateCode = "BB" // Brandenburg
	HB StateCode = "HB" // Bremen
	HH StateCode = "HH" // Hamburg
	HE StateCode = "HE" // Hessen
	MV StateCode = "MV" // Mecklenburg-Vorpommern
	NI StateCode = "NI" // Niedersachsen
	NW StateCode = "NW" // Nordrhein-Westfalen
	RP StateCode = "RP" // Rheinland-Pfalz
	SL StateCode = "SL" // Saarland
	SN StateCode = "SN" // Sachsen
	ST StateCode = "ST" // Sachsen-Anhalt
	SH StateCode = "SH" // Schleswig-Holstein
	TH StateCode = "TH" // Thueringen

	// Nationwide selects only the holidays observed in every state
	Nationwide StateCode = "DE"
)

var (
	// ErrInvalidRegion is returned for a state code outside the 16 states / DE
	ErrInvalidRegion = errors.New("unknown state code")

	// ErrUnsupportedYear is returned for years outside the ruleset's range
	ErrUnsupportedYear = errors.New("year outside supported calendar range")
)

var stateNames = map[StateCode]string{
	BW: "Baden-Württemberg",
	BY: "Bayern",
	BE: "Berlin",
	BB: "Brandenburg",
	HB: "Bremen",
	HH: "Hamburg",
	HE: "Hessen",
	MV: "Mecklenburg-Vorpommern",
	NI: "Niedersachsen",
	NW: "Nordrhein-Westfalen",
	RP: "Rheinland-Pfalz",
	SL: "Saarland",
	SN: "Sachsen",
	ST: "Sachsen-Anhalt",
	SH: "Schleswig-Holstein",
	TH: "Thüringen",
}

// States returns the 16 state codes in lexicographic order
func States() []StateCode {
	codes := make([]StateCode, 0, len(stateNames))
	for code := range stateNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// IsValid reports whether code is one of the 16 state codes
func IsValid(code StateCode) bool {
	_, ok := stateNames[code]
	return ok
}

// Name returns the full German name of a state, or "Deutschland" for DE
func Name(code StateCode) string {
	if code == Nationwide {
		return "Deutschland"
	}
	return stateNames[code]
}

// Record is one holiday occurrence in one region.
// Records are uniquely keyed by (Date, State, Name).
type Record struct {
	Date    time.Time
	Name    string
	State   StateCode
	Special bool // non-public observance (Silvester, Muttertag, ...)
}

// Source provides the holiday occurrences for a year and region
type Source interface {
	// Holidays returns all holidays for the given year in the given state,
	// or the holidays common to all states when state is Nationwide
	Holidays(year int, state StateCode) ([]Record, error)
}
