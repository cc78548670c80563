package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"fishpulse/internal/config"
)

// Format is a download file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the default download name for the format
func (f Format) FileName() string {
	if f == FormatXLSX {
		return config.ExportXLSXFileName
	}
	return config.ExportCSVFileName
}

// formatVolume prints a volume with the shortest exact representation,
// so 500 stays "500" and 250.5 stays "250.5"
func formatVolume(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
