package exporter

import (
	"sort"

	"fishpulse/pkg/contracts/domain"
)

// BuildExportRows flattens records into download rows ordered by year
// descending, then volume descending. Remaining ties fall back to month index
// and species so the order never depends on input order.
func BuildExportRows(records []domain.ProductionRecord) []domain.ExportRow {
	sorted := append([]domain.ProductionRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.VolumeKg != b.VolumeKg {
			return a.VolumeKg > b.VolumeKg
		}
		if a.MonthIndex != b.MonthIndex {
			return a.MonthIndex < b.MonthIndex
		}
		return a.Species < b.Species
	})

	rows := make([]domain.ExportRow, len(sorted))
	for i, r := range sorted {
		rows[i] = domain.ExportRow{
			Year:     r.Year,
			Month:    r.MonthName,
			Species:  r.Species,
			VolumeKg: r.VolumeKg,
		}
	}
	return rows
}
