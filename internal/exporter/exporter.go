package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apierrors "fishpulse/internal/errors"
	"fishpulse/pkg/contracts/domain"
)

// Exporter renders record selections as downloadable tables
type Exporter struct {
	logger  *slog.Logger
	options WriteOptions
}

// NewExporter creates an exporter. options apply to CSV output only.
func NewExporter(logger *slog.Logger, options WriteOptions) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		logger:  logger.With(slog.String("component", "exporter")),
		options: options,
	}
}

// Export sorts records into export rows and writes them to w in format.
// It returns the number of data rows written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format Format, records []domain.ProductionRecord) (int, error) {
	rows := BuildExportRows(records)

	var err error
	switch format {
	case FormatCSV:
		err = WriteExportCSV(w, rows, e.options)
	case FormatXLSX:
		err = WriteExportXLSX(w, rows)
	default:
		return 0, apierrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return 0, apierrors.NewStorageError("export failed", err).
			WithCode(apierrors.CodeExportFailed).
			WithContext("format", string(format))
	}

	e.logger.InfoContext(ctx, "export written",
		slog.String("format", string(format)),
		slog.Int("row_count", len(rows)))

	return len(rows), nil
}

// ExportFile writes the export into dir under the format's default file
// name and returns the full path.
func (e *Exporter) ExportFile(ctx context.Context, dir string, format Format, records []domain.ProductionRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, format.FileName())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := e.Export(ctx, file, format, records); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, nil
}
