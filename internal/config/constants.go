package config

import "time"

// Application constants
const (
	AppName    = "Fish Production Pulse"
	AppVersion = "1.0.0"
	AppVendor  = "PPN Karangantu"

	// Environment variable prefix used by envconfig
	EnvPrefix = "FISH"

	// Default file names offered for downloads
	ExportCSVFileName  = "produksi_ikan_filtered.csv"
	ExportXLSXFileName = "produksi_ikan_filtered.xlsx"
	ExportSheetName    = "Produksi"

	// Aggregation defaults
	DefaultTopSpecies       = 10
	MaxTopSpecies           = 100
	DefaultSpeciesSelection = 20

	// Ingestion limits
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	DefaultCacheEntries   = 4
	DefaultSessionTTL     = 2 * time.Hour
	DefaultSweepInterval  = 5 * time.Minute
	DefaultMaxSessions    = 1000
)

// MonthNames is the canonical month list in calendar order, January first.
// The position of a name plus one is its month index.
var MonthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// VolumeSentinels are raw volume tokens that mean "no measurement".
var VolumeSentinels = [4]string{"-", "", " ", "nan"}

// SentinelPeriod is used when a record's year and month cannot form a date.
var SentinelPeriod = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Column identifies one of the four required input columns.
type Column string

const (
	ColumnYear    Column = "year"
	ColumnMonth   Column = "month"
	ColumnSpecies Column = "species"
	ColumnVolume  Column = "volume"
)

// RequiredColumns lists the input columns in output order.
var RequiredColumns = []Column{ColumnYear, ColumnMonth, ColumnSpecies, ColumnVolume}

// ColumnLabels maps each required column to the header labels accepted for it.
// The first label is the primary one; the rest are source-language aliases.
var ColumnLabels = map[Column][]string{
	ColumnYear:    {"Year", "Tahun"},
	ColumnMonth:   {"Month", "Bulan"},
	ColumnSpecies: {"Species", "Jenis Ikan"},
	ColumnVolume:  {"Volume Produced (kg)", "Volume Produksi (kg)"},
}

// ExportHeaders is the header row of the export table.
var ExportHeaders = []string{"Year", "Month", "Species", "Volume Produced (kg)"}

// FormatExample is shown to callers whose upload was rejected.
const FormatExample = "Year\tMonth\tSpecies\tVolume Produced (kg)\n" +
	"2020\tJanuari\tTeri (Anchovy)\t63163\n" +
	"2020\tJanuari\tKembung (Indian Mackerel)\t5232\n"

// InputExtensions are the file extensions the processor picks up when it is
// pointed at a directory.
var InputExtensions = []string{".csv", ".tsv", ".txt", ".xlsx"}
