package domain

import (
	"time"
)

// KPISummary holds the headline figures of a (filtered) dataset.
type KPISummary struct {
	TotalVolumeKg    float64 `json:"total_volume_kg"`
	MonthlyAverageKg float64 `json:"monthly_average_kg"`
	SpeciesCount     int     `json:"species_count"`
	BestYear         string  `json:"best_year"` // year as text, or "N/A"
}

// TrendPoint is the total volume of one period.
type TrendPoint struct {
	Period   time.Time `json:"period"`
	VolumeKg float64   `json:"volume_kg"`
}

// SpeciesVolume is the total volume of one species.
type SpeciesVolume struct {
	Species  string  `json:"species"`
	VolumeKg float64 `json:"volume_kg"`
}

// YearVolume is the total volume of one year.
type YearVolume struct {
	Year     int     `json:"year"`
	VolumeKg float64 `json:"volume_kg"`
}

// PivotTable is a month x year matrix of summed volumes.
// Rows follow the canonical month order; Cells[i][j] is nil when no record
// exists for Months[i] in Years[j], which is distinct from a zero total.
type PivotTable struct {
	Months []string     `json:"months"`
	Years  []int        `json:"years"`
	Cells  [][]*float64 `json:"cells"`
}

// Value returns the cell for month and year and whether any data exists there.
func (p PivotTable) Value(month string, year int) (float64, bool) {
	row := -1
	for i, m := range p.Months {
		if m == month {
			row = i
			break
		}
	}
	if row < 0 {
		return 0, false
	}
	for j, y := range p.Years {
		if y == year {
			if cell := p.Cells[row][j]; cell != nil {
				return *cell, true
			}
			return 0, false
		}
	}
	return 0, false
}

// Facets lists the values available for filtering a dataset.
type Facets struct {
	Years          []int    `json:"years"`
	Months         []string `json:"months"`
	Species        []string `json:"species"`
	DefaultSpecies []string `json:"default_species"`
}

// ExportRow is one line of the flattened download table.
type ExportRow struct {
	Year     int     `json:"year"`
	Month    string  `json:"month"`
	Species  string  `json:"species"`
	VolumeKg float64 `json:"volume_kg"`
}
