package dataprocessing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"fishpulse/internal/config"
	apierrors "fishpulse/internal/errors"
	"fishpulse/pkg/contracts/domain"
)

// ParseErrorKind classifies why an upload was rejected
type ParseErrorKind string

const (
	// ParseErrorEncoding means the bytes are not UTF-8 (or BOM-marked UTF-16) text
	ParseErrorEncoding ParseErrorKind = "encoding"
	// ParseErrorMalformed means no delimiter produced a readable table
	ParseErrorMalformed ParseErrorKind = "malformed"
	// ParseErrorSchema means the table lacks one or more required columns
	ParseErrorSchema ParseErrorKind = "schema"
)

// Source formats reported in DatasetInfo.Delimiter
const (
	DelimiterTab      = "tab"
	DelimiterComma    = "comma"
	DelimiterWorkbook = "xlsx"
)

// ParseError describes a structural ingestion failure. The whole upload is
// rejected; no partial dataset exists.
type ParseError struct {
	Kind      ParseErrorKind
	Delimiter string
	Missing   []string
	Row       int // 1-based file line of a malformed data row, 0 when not row-specific
	Err       error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseErrorSchema:
		return fmt.Sprintf("required columns missing: %s", strings.Join(e.Missing, ", "))
	case ParseErrorEncoding:
		return fmt.Sprintf("input is not UTF-8 text: %v", e.Err)
	default:
		if e.Row > 0 {
			return fmt.Sprintf("malformed row at line %d of %s-delimited table: %v", e.Row, e.Delimiter, e.Err)
		}
		if e.Delimiter != "" {
			return fmt.Sprintf("cannot read input as %s-delimited table: %v", e.Delimiter, e.Err)
		}
		return fmt.Sprintf("cannot read input: %v", e.Err)
	}
}

// Unwrap returns the underlying reader error, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errEmptyInput  = errors.New("input has no header row")
	errInvalidUTF8 = errors.New("invalid UTF-8 byte sequence")

	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	zipMagic   = []byte("PK\x03\x04")
	delimiters = []struct {
		name  string
		comma rune
	}{
		{DelimiterTab, '\t'},
		{DelimiterComma, ','},
	}
)

// Dataset is an immutable, deduplicated set of production records together
// with the metadata of the upload it came from.
type Dataset struct {
	Info    domain.DatasetInfo
	records []domain.ProductionRecord
}

// NewDataset wraps records that are already clean. The slice is copied.
func NewDataset(info domain.DatasetInfo, records []domain.ProductionRecord) *Dataset {
	info.RecordCount = len(records)
	return &Dataset{
		Info:    info,
		records: append([]domain.ProductionRecord(nil), records...),
	}
}

// Records returns a copy of the records in input order
func (d *Dataset) Records() []domain.ProductionRecord {
	return append([]domain.ProductionRecord(nil), d.records...)
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Select returns the records matching filter as a new slice
func (d *Dataset) Select(filter domain.ProductionFilter) []domain.ProductionRecord {
	return Filter(d.records, filter)
}

// ContentHash returns the hex SHA-256 of an upload, the identity used by the
// normalization cache.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Normalizer turns uploaded bytes into a clean Dataset
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewNormalizer creates a normalizer logging through logger
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
		now:    time.Now,
	}
}

// Normalize parses raw as a tab- or comma-delimited table (or an xlsx
// workbook), cleans every row and drops duplicates.
//
// Structural failures return an *apierrors.AppError of type PARSING wrapping
// a *ParseError. Bad cells never fail: volumes fall back to 0, unknown months
// to January and impossible dates to config.SentinelPeriod.
func (n *Normalizer) Normalize(ctx context.Context, name string, raw []byte) (*Dataset, error) {
	start := n.now()

	rawRecords, source, err := readRawRecords(ctx, raw)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			n.logger.WarnContext(ctx, "dataset rejected",
				slog.String("source", name),
				slog.String("kind", string(perr.Kind)),
				slog.String("delimiter", perr.Delimiter),
				slog.String("error", perr.Error()))
			return nil, rejection(perr)
		}
		return nil, err
	}

	info := domain.DatasetInfo{
		SourceName:  name,
		ContentHash: ContentHash(raw),
		Delimiter:   source,
		RowsRead:    len(rawRecords),
	}

	cleaned := make([]domain.ProductionRecord, 0, len(rawRecords))
	for _, rr := range rawRecords {
		rec, anomalies := cleanRecord(rr)
		if anomalies.volumeCoerced {
			info.CoercedVolumes++
		}
		if anomalies.unknownMonth {
			info.UnknownMonthRows++
		}
		if anomalies.invalidYear {
			info.InvalidYearRows++
		}
		cleaned = append(cleaned, rec)
	}

	records := Deduplicate(cleaned)
	info.RecordCount = len(records)
	info.DuplicatesDropped = len(cleaned) - len(records)
	info.IngestedAt = n.now().UTC()

	n.logger.InfoContext(ctx, "dataset normalized",
		slog.String("source", name),
		slog.String("delimiter", source),
		slog.Int("rows_read", info.RowsRead),
		slog.Int("records", info.RecordCount),
		slog.Int("duplicates_dropped", info.DuplicatesDropped),
		slog.Int("unknown_month_rows", info.UnknownMonthRows),
		slog.Int("invalid_year_rows", info.InvalidYearRows),
		slog.Int("coerced_volumes", info.CoercedVolumes),
		slog.Duration("duration", n.now().Sub(start)))

	return &Dataset{Info: info, records: records}, nil
}

// rejection converts a ParseError into the application error taxonomy
func rejection(perr *ParseError) error {
	appErr := apierrors.NewParsingError("dataset rejected", perr).
		WithContext("kind", string(perr.Kind)).
		WithContext("format_example", config.FormatExample)
	if perr.Delimiter != "" {
		appErr.WithContext("delimiter", perr.Delimiter)
	}
	if len(perr.Missing) > 0 {
		appErr.WithContext("missing", perr.Missing)
	}
	return appErr
}

// table is a header plus data rows, as read by one delimiter attempt
type table struct {
	source string
	header []string
	rows   [][]string
}

// readRawRecords detects the input format and decodes every data row.
// Tab is tried before comma; the comma attempt runs when the tab attempt
// cannot be read or lacks a required column.
func readRawRecords(ctx context.Context, raw []byte) ([]domain.RawRecord, string, error) {
	if bytes.HasPrefix(raw, zipMagic) {
		tbl, perr := readWorkbook(raw)
		if perr != nil {
			return nil, "", perr
		}
		records, err := decodeTable(ctx, tbl)
		return records, tbl.source, err
	}

	text, err := decodeText(raw)
	if err != nil {
		return nil, "", &ParseError{Kind: ParseErrorEncoding, Err: err}
	}

	var best *ParseError
	for _, d := range delimiters {
		tbl, perr := readDelimited(text, d.name, d.comma)
		if perr == nil {
			records, err := decodeTable(ctx, tbl)
			if err == nil {
				return records, d.name, nil
			}
			if !errors.As(err, &perr) {
				return nil, "", err
			}
		}
		best = preferredFailure(best, perr)
	}
	return nil, "", best
}

// preferredFailure keeps the attempt that got furthest. A bad data row under
// a valid header beats a schema mismatch, which beats an unreadable table;
// among schema mismatches fewer missing columns win. Ties keep the earlier
// attempt.
func preferredFailure(current, next *ParseError) *ParseError {
	if current == nil || progress(next) > progress(current) {
		return next
	}
	return current
}

func progress(e *ParseError) int {
	switch {
	case e.Row > 0:
		return 100
	case e.Kind == ParseErrorSchema:
		return 50 - len(e.Missing)
	default:
		return 0
	}
}

// decodeText strips a byte order mark and checks the text encoding.
// UTF-16 input with a BOM is transcoded to UTF-8.
func decodeText(raw []byte) ([]byte, error) {
	isUTF16 := bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) || bytes.HasPrefix(raw, []byte{0xFF, 0xFE})
	if !isUTF16 && !utf8.Valid(bytes.TrimPrefix(raw, utf8BOM)) {
		return nil, errInvalidUTF8
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, err
	}
	return text, nil
}

func readDelimited(text []byte, name string, comma rune) (*table, *ParseError) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Kind: ParseErrorMalformed, Delimiter: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Kind: ParseErrorMalformed, Delimiter: name, Err: errEmptyInput}
	}

	return &table{source: name, header: rows[0], rows: rows[1:]}, nil
}

// readWorkbook loads the first sheet that carries every required column,
// falling back to the first sheet so the schema error names what is missing.
func readWorkbook(raw []byte) (*table, *ParseError) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Kind: ParseErrorMalformed, Delimiter: DelimiterWorkbook, Err: err}
	}
	defer f.Close()

	var first *table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for len(rows) > 0 && isBlankRow(rows[0]) {
			rows = rows[1:]
		}
		if len(rows) == 0 {
			continue
		}

		tbl := &table{source: DelimiterWorkbook, header: rows[0], rows: rows[1:]}
		if _, missing := resolveColumns(tbl.header); len(missing) == 0 {
			return tbl, nil
		}
		if first == nil {
			first = tbl
		}
	}

	if first == nil {
		return nil, &ParseError{Kind: ParseErrorMalformed, Delimiter: DelimiterWorkbook, Err: errEmptyInput}
	}
	return first, nil
}

// resolveColumns finds each required column in a header. Labels are compared
// after trimming whitespace, case-insensitively, against config.ColumnLabels.
func resolveColumns(header []string) ([]int, []string) {
	index := make([]int, len(config.RequiredColumns))
	var missing []string

	for i, col := range config.RequiredColumns {
		index[i] = -1
		for pos, label := range header {
			if matchesColumn(col, strings.TrimSpace(label)) {
				index[i] = pos
				break
			}
		}
		if index[i] < 0 {
			missing = append(missing, config.ColumnLabels[col][0])
		}
	}
	return index, missing
}

func matchesColumn(col config.Column, label string) bool {
	for _, candidate := range config.ColumnLabels[col] {
		if strings.EqualFold(candidate, label) {
			return true
		}
	}
	return false
}

// decodeTable maps every data row onto a RawRecord through csvutil
func decodeTable(ctx context.Context, tbl *table) ([]domain.RawRecord, error) {
	index, missing := resolveColumns(tbl.header)
	if len(missing) > 0 {
		return nil, &ParseError{Kind: ParseErrorSchema, Delimiter: tbl.source, Missing: missing}
	}

	header := make([]string, len(config.RequiredColumns))
	for i, col := range config.RequiredColumns {
		header[i] = string(col)
	}

	proj := &columnProjector{rows: tbl.rows, index: index, width: len(tbl.header), buf: make([]string, len(index))}
	dec, err := csvutil.NewDecoder(proj, header...)
	if err != nil {
		return nil, &ParseError{Kind: ParseErrorMalformed, Delimiter: tbl.source, Err: err}
	}

	records := make([]domain.RawRecord, 0, len(tbl.rows))
	for {
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var rec domain.RawRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			perr := &ParseError{Kind: ParseErrorMalformed, Delimiter: tbl.source, Err: err}
			var rerr *rowError
			if errors.As(err, &rerr) {
				perr.Row = rerr.line
			}
			return nil, perr
		}
		records = append(records, rec)
	}

	return records, nil
}

// columnProjector feeds csvutil the four required fields of each row in
// config.RequiredColumns order. Short rows are padded with empty fields.
type columnProjector struct {
	rows  [][]string
	index []int
	width int
	pos   int
	buf   []string
}

// Read implements csvutil.Reader
func (p *columnProjector) Read() ([]string, error) {
	for p.pos < len(p.rows) {
		row := p.rows[p.pos]
		p.pos++

		if isBlankRow(row) {
			continue
		}
		if len(row) > p.width && !isBlankRow(row[p.width:]) {
			// header is line 1
			return nil, &rowError{line: p.pos + 1, want: p.width, got: len(row)}
		}

		for i, col := range p.index {
			if col < len(row) {
				p.buf[i] = row[col]
			} else {
				p.buf[i] = ""
			}
		}
		return p.buf, nil
	}
	return nil, io.EOF
}

// rowError reports a data row wider than the header
type rowError struct {
	line int
	want int
	got  int
}

func (e *rowError) Error() string {
	return fmt.Sprintf("expected %d fields, found %d", e.want, e.got)
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// recordAnomalies lists the field fallbacks applied to one row
type recordAnomalies struct {
	volumeCoerced bool
	unknownMonth  bool
	invalidYear   bool
}

// cleanRecord converts one raw row into a ProductionRecord. It never fails;
// each malformed field has a fixed fallback.
func cleanRecord(raw domain.RawRecord) (domain.ProductionRecord, recordAnomalies) {
	var anomalies recordAnomalies

	year, ok := parseYear(raw.Year)
	anomalies.invalidYear = !ok
	var rawYear string
	if !ok {
		rawYear = strings.TrimSpace(raw.Year)
	}

	month, recognized := ParseMonth(raw.Month)
	anomalies.unknownMonth = !recognized
	monthName := strings.TrimSpace(raw.Month)
	if recognized {
		monthName = month.Name()
	}

	volume, coerced := CoerceVolume(raw.Volume)
	anomalies.volumeCoerced = coerced

	period, _ := PeriodOf(year, month)

	return domain.ProductionRecord{
		Year:            year,
		RawYear:         rawYear,
		MonthName:       monthName,
		MonthIndex:      int(month),
		MonthRecognized: recognized,
		Species:         NormalizeSpecies(raw.Species),
		VolumeKg:        volume,
		Period:          period,
	}, anomalies
}

// CoerceVolume parses a raw volume cell. Sentinel tokens, unparseable text,
// NaN, infinities and negative numbers all become exactly 0; the second
// result reports whether such a replacement happened.
func CoerceVolume(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, sentinel := range config.VolumeSentinels {
		if strings.EqualFold(trimmed, strings.TrimSpace(sentinel)) {
			return 0, true
		}
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, true
	}
	return v, false
}

// NormalizeSpecies trims a species label and removes double quotes
func NormalizeSpecies(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(raw), `"`, ""))
}

// parseYear accepts integer text and integral floats such as "2021.0"
func parseYear(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if y, err := strconv.Atoi(trimmed); err == nil {
		return y, y >= 1 && y <= 9999
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f == math.Trunc(f) && f >= 1 && f <= 9999 {
		return int(f), true
	}
	return 0, false
}
