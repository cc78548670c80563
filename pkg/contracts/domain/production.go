package domain

import (
	"time"
)

// RawRecord is one data row as read from an uploaded file, before cleaning.
// Every field is kept as text; the normalizer decides how to coerce it.
type RawRecord struct {
	Year    string `csv:"year"`
	Month   string `csv:"month"`
	Species string `csv:"species"`
	Volume  string `csv:"volume"`
}

// ProductionRecord is a single normalized (year, month, species, volume)
// observation. It is the canonical unit of a dataset.
type ProductionRecord struct {
	Year            int       `json:"year"`
	RawYear         string    `json:"raw_year,omitempty"` // trimmed year cell, set only when it did not parse
	MonthName       string    `json:"month_name"`
	MonthIndex      int       `json:"month_index" validate:"min=1,max=12"`
	MonthRecognized bool      `json:"month_recognized"` // false when MonthIndex is the January fallback
	Species         string    `json:"species"`
	VolumeKg        float64   `json:"volume_kg" validate:"min=0"`
	Period          time.Time `json:"period"`
}

// DatasetInfo describes how an uploaded file was ingested.
type DatasetInfo struct {
	SourceName        string    `json:"source_name"`
	ContentHash       string    `json:"content_hash"`
	Delimiter         string    `json:"delimiter"`
	RowsRead          int       `json:"rows_read"`
	RecordCount       int       `json:"record_count"`
	DuplicatesDropped int       `json:"duplicates_dropped"`
	UnknownMonthRows  int       `json:"unknown_month_rows"`
	InvalidYearRows   int       `json:"invalid_year_rows"`
	CoercedVolumes    int       `json:"coerced_volumes"`
	IngestedAt        time.Time `json:"ingested_at"`
}

// ProductionFilter selects a read-only subset of a dataset.
// A nil or empty list places no restriction on that dimension.
type ProductionFilter struct {
	Years   []int    `json:"years,omitempty"`
	Months  []string `json:"months,omitempty"`
	Species []string `json:"species,omitempty"`
}

// IsZero reports whether the filter selects every record.
func (f ProductionFilter) IsZero() bool {
	return len(f.Years) == 0 && len(f.Months) == 0 && len(f.Species) == 0
}
