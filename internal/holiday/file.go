package holiday

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/username/feiertage-export/pkg/dateutil"
)

// FileSource implements Source using a local text file. It is meant for
// extra or regional observances the built-in ruleset does not know about.
type FileSource struct {
	filePath string
	logger   *zap.Logger
	records  map[int][]Record // key: calendar year
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
		records:  make(map[int][]Record),
	}
}

// Load loads holiday records from file.
//
// Format: one record per line, blank lines and '#' comments skipped:
//
//	YYYY-MM-DD state public|special name
//
// state is a two-letter state code or DE for all states.
// Example: 2024-08-08 BY public Augsburger Friedensfest
func (fs *FileSource) Load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			fs.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}

		dateStr := parts[0]
		stateStr := parts[1]
		kindStr := parts[2]
		name := strings.TrimSpace(parts[3])

		date, err := dateutil.ParseDate(dateStr)
		if err != nil {
			fs.logger.Warn("Failed to parse date", zap.String("date", dateStr), zap.Error(err))
			continue
		}

		state := StateCode(strings.ToUpper(stateStr))
		if state != Nationwide && !IsValid(state) {
			fs.logger.Warn("Unknown state code", zap.String("state", stateStr))
			continue
		}

		var special bool
		switch kindStr {
		case "public":
			special = false
		case "special":
			special = true
		default:
			fs.logger.Warn("Unknown holiday kind", zap.String("kind", kindStr))
			continue
		}

		year := date.Year()
		fs.records[year] = append(fs.records[year], Record{
			Date:    date,
			Name:    name,
			State:   state,
			Special: special,
		})
		lines++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading holiday file: %w", err)
	}

	fs.logger.Info("Holiday file loaded",
		zap.String("file", fs.filePath),
		zap.Int("records", lines))

	return nil
}

// Holidays returns the file records matching the year and state. Records
// stored under DE apply to every state; a Nationwide query returns only
// the DE records.
func (fs *FileSource) Holidays(year int, state StateCode) ([]Record, error) {
	if state != Nationwide && !IsValid(state) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRegion, state)
	}

	var matched []Record
	for _, rec := range fs.records[year] {
		if rec.State != state && rec.State != Nationwide {
			continue
		}
		// re-key DE records to the queried state
		rec.State = state
		matched = append(matched, rec)
	}

	return matched, nil
}
