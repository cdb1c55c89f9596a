// Package export writes the finished report table to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/username/feiertage-export/internal/report"
)

// Filename derives the deterministic export filename from the range:
// Export_holidays_{startYear}_{startMonth}_{endYear}_{endMonth}.csv
// with zero-padded months.
func Filename(start, end time.Time) string {
	return fmt.Sprintf("Export_holidays_%d_%02d_%d_%02d.csv",
		start.Year(), int(start.Month()), end.Year(), int(end.Month()))
}

// WriteCSV writes the table to dir under the derived filename. The data
// goes to a temporary file first and is renamed into place only after a
// successful flush, so a failed write never leaves a partial export.
// Returns the final path.
func WriteCSV(dir string, start, end time.Time, table *report.Table, logger *zap.Logger) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, Filename(start, end))

	tmp, err := os.CreateTemp(dir, Filename(start, end)+".tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary export file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(table.Header()); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write CSV header to %s: %w", tmpPath, err)
	}
	for _, row := range table.Rows {
		if err := w.Write(table.Fields(row)); err != nil {
			cleanup()
			return "", fmt.Errorf("failed to write CSV row to %s: %w", tmpPath, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to flush CSV to %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move export into place at %s: %w", path, err)
	}

	logger.Info("Export written",
		zap.String("path", path),
		zap.Int("rows", len(table.Rows)))

	return path, nil
}
