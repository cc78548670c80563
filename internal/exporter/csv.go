package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"fishpulse/internal/config"
	"fishpulse/pkg/contracts/domain"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// csvRow is the wire shape of one export line. The tags must match
// config.ExportHeaders.
type csvRow struct {
	Year    int    `csv:"Year"`
	Month   string `csv:"Month"`
	Species string `csv:"Species"`
	Volume  string `csv:"Volume Produced (kg)"`
}

// WriteExportCSV writes rows as comma-delimited text with a header line
func WriteExportCSV(w io.Writer, rows []domain.ExportRow, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	enc := csvutil.NewEncoder(writer)

	if len(rows) == 0 {
		if err := writer.Write(config.ExportHeaders); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, row := range rows {
		if err := enc.Encode(csvRow{
			Year:    row.Year,
			Month:   row.Month,
			Species: row.Species,
			Volume:  formatVolume(row.VolumeKg),
		}); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
