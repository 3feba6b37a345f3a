// Package export writes raw CDR rows to timestamped CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/webex-cdr-support/internal/report"
)

const baseFilename = "cdr_output"

// Writer persists row sequences as CSV files in a fixed directory. It
// implements report.Sink.
type Writer struct {
	dir string
	now func() time.Time
	log *logrus.Entry
}

func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		now: time.Now,
		log: logrus.WithField("component", "csv-export"),
	}
}

// Write stores the rows under a timestamped filename, header first, and
// returns the path written. Column order follows the parsed report header.
func (w *Writer) Write(columns []string, rows []report.Row) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no data provided to write to CSV")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %q: %w", w.dir, err)
	}

	filename := fmt.Sprintf("%s_%s.csv", baseFilename, w.now().Format("20060102_150405"))
	path := filepath.Join(w.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if err := cw.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for idx, name := range columns {
			record[idx] = row.Get(name)
		}

		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %q: %w", path, err)
	}

	w.log.Infof("raw report data written to %s", path)

	return path, nil
}
