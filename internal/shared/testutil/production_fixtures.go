package testutil

import (
	"strings"
)

// DefaultHeader is the English header row accepted by the normalizer
var DefaultHeader = []string{"Year", "Month", "Species", "Volume Produced (kg)"}

// ProductionFile builds delimited fish-production input for tests
type ProductionFile struct {
	header []string
	rows   [][]string
}

// NewProductionFile starts a file with DefaultHeader
func NewProductionFile() *ProductionFile {
	return &ProductionFile{header: append([]string(nil), DefaultHeader...)}
}

// Header replaces the header row
func (f *ProductionFile) Header(columns ...string) *ProductionFile {
	f.header = columns
	return f
}

// Row appends one data row
func (f *ProductionFile) Row(fields ...string) *ProductionFile {
	f.rows = append(f.rows, fields)
	return f
}

// TSV renders the file tab-delimited
func (f *ProductionFile) TSV() []byte {
	return f.render("\t")
}

// CSV renders the file comma-delimited. Fields containing commas or quotes are
// quoted the way spreadsheet exports do.
func (f *ProductionFile) CSV() []byte {
	return f.render(",")
}

func (f *ProductionFile) render(sep string) []byte {
	var b strings.Builder
	writeLine(&b, f.header, sep)
	for _, row := range f.rows {
		writeLine(&b, row, sep)
	}
	return []byte(b.String())
}

func writeLine(b *strings.Builder, fields []string, sep string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteString(sep)
		}
		if sep == "," && strings.ContainsAny(field, ",\"\n") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(field)
	}
	b.WriteByte('\n')
}

// SampleTSV is a small dataset covering three years, a duplicate row, a
// sentinel volume and a quoted species name.
func SampleTSV() []byte {
	return NewProductionFile().
		Row("2021", "Januari", "Tuna", "500").
		Row("2021", "Maret", "Cakalang", "300").
		Row("2021", "Januari", "Tuna", "999").
		Row("2022", "Februari", `"Kakap, Merah"`, "-").
		Row("2022", "Februari", "Tuna", "1200").
		Row("2023", "Desember", "Tongkol", "nan").
		Row("2023", "Januari", "Cakalang", "250.5").
		TSV()
}
