package holiday

import (
	"fmt"

	"go.uber.org/zap"
)

// CompositeSource implements Source as an overlay:
// the built-in ruleset provides the base set and an extra source (usually
// a FileSource) contributes additional records. Extra records that repeat
// a (date, name) pair already present in the base set are dropped, so a
// file can never double a holiday the ruleset already knows.
type CompositeSource struct {
	base   Source
	extra  Source
	logger *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(base, extra Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		base:   base,
		extra:  extra,
		logger: logger,
	}
}

// Holidays returns the merged holidays for the year and state
func (cs *CompositeSource) Holidays(year int, state StateCode) ([]Record, error) {
	records, err := cs.base.Holidays(year, state)
	if err != nil {
		return nil, err
	}

	extra, err := cs.extra.Holidays(year, state)
	if err != nil {
		return nil, fmt.Errorf("extra holiday source failed: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.Date.Format("2006-01-02")+"/"+rec.Name] = true
	}

	for _, rec := range extra {
		key := rec.Date.Format("2006-01-02") + "/" + rec.Name
		if seen[key] {
			cs.logger.Debug("Extra record shadows built-in holiday, skipping",
				zap.String("date", rec.Date.Format("2006-01-02")),
				zap.String("name", rec.Name))
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}

	return records, nil
}

// LoadExtra loads the extra source (if FileSource)
func (cs *CompositeSource) LoadExtra() error {
	if fs, ok := cs.extra.(*FileSource); ok {
		if err := fs.Load(); err != nil {
			return fmt.Errorf("failed to load extra holidays: %w", err)
		}
		cs.logger.Info("Extra holiday file loaded successfully")
	}
	return nil
}
