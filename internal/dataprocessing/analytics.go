package dataprocessing

import (
	"slices"
	"sort"
	"strconv"
	"time"

	"fishpulse/internal/config"
	"fishpulse/pkg/contracts/domain"
)

// NoBestYear is reported by BestYearLabel when no year produced anything
const NoBestYear = "N/A"

// The aggregations below are pure functions over a record slice. Each one
// accepts an empty or nil slice and returns its documented empty value.

// TotalVolume sums VolumeKg over all records
func TotalVolume(records []domain.ProductionRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.VolumeKg
	}
	return total
}

// MonthlyAverage groups records by (year, month name), sums each group and
// returns the mean of those sums. It returns 0 when there are no groups.
func MonthlyAverage(records []domain.ProductionRecord) float64 {
	type yearMonth struct {
		year  int
		month string
	}

	groups := make(map[yearMonth]int)
	var sums []float64
	for _, r := range records {
		key := yearMonth{r.Year, r.MonthName}
		i, ok := groups[key]
		if !ok {
			i = len(sums)
			groups[key] = i
			sums = append(sums, 0)
		}
		sums[i] += r.VolumeKg
	}
	if len(sums) == 0 {
		return 0
	}

	var total float64
	for _, s := range sums {
		total += s
	}
	return total / float64(len(sums))
}

// SpeciesCount returns the number of distinct species
func SpeciesCount(records []domain.ProductionRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Species] = struct{}{}
	}
	return len(seen)
}

// BestYear returns the year with the largest total volume. Ties go to the
// earliest year. ok is false when records is empty or no year total is
// above zero.
func BestYear(records []domain.ProductionRecord) (year int, ok bool) {
	var best float64
	for _, yv := range YearlyTotals(records) {
		if yv.VolumeKg > best {
			best = yv.VolumeKg
			year = yv.Year
			ok = true
		}
	}
	return year, ok
}

// BestYearLabel formats BestYear as text, or NoBestYear
func BestYearLabel(records []domain.ProductionRecord) string {
	if year, ok := BestYear(records); ok {
		return strconv.Itoa(year)
	}
	return NoBestYear
}

// MonthlyTrend sums volume per period, ordered by ascending period.
// An empty input yields an empty, non-nil series.
func MonthlyTrend(records []domain.ProductionRecord) []domain.TrendPoint {
	sums := make(map[time.Time]float64)
	for _, r := range records {
		sums[r.Period] += r.VolumeKg
	}

	trend := make([]domain.TrendPoint, 0, len(sums))
	for period, volume := range sums {
		trend = append(trend, domain.TrendPoint{Period: period, VolumeKg: volume})
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Period.Before(trend[j].Period)
	})
	return trend
}

// TopSpecies returns at most n species ranked by descending total volume.
// Species with equal totals keep the order in which they first appear.
func TopSpecies(records []domain.ProductionRecord, n int) []domain.SpeciesVolume {
	if n <= 0 {
		return []domain.SpeciesVolume{}
	}

	index := make(map[string]int)
	ranked := make([]domain.SpeciesVolume, 0)
	for _, r := range records {
		i, ok := index[r.Species]
		if !ok {
			i = len(ranked)
			index[r.Species] = i
			ranked = append(ranked, domain.SpeciesVolume{Species: r.Species})
		}
		ranked[i].VolumeKg += r.VolumeKg
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].VolumeKg > ranked[j].VolumeKg
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// YearlyTotals sums volume per year in ascending year order
func YearlyTotals(records []domain.ProductionRecord) []domain.YearVolume {
	sums := make(map[int]float64)
	for _, r := range records {
		sums[r.Year] += r.VolumeKg
	}

	totals := make([]domain.YearVolume, 0, len(sums))
	for year, volume := range sums {
		totals = append(totals, domain.YearVolume{Year: year, VolumeKg: volume})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Year < totals[j].Year
	})
	return totals
}

// MonthYearPivot sums volume per (month, year). Rows are always the twelve
// canonical months in calendar order; columns are every year present, in
// ascending order. A cell without records is nil, never zero.
//
// Records whose month label was not recognized have no canonical row and do
// not contribute to any cell, though their year still gets a column.
func MonthYearPivot(records []domain.ProductionRecord) domain.PivotTable {
	pivot := domain.PivotTable{
		Months: slices.Clone(config.MonthNames[:]),
		Years:  []int{},
		Cells:  make([][]*float64, len(config.MonthNames)),
	}

	column := make(map[int]int)
	for _, r := range records {
		if _, ok := column[r.Year]; !ok {
			column[r.Year] = 0
			pivot.Years = append(pivot.Years, r.Year)
		}
	}
	slices.Sort(pivot.Years)
	for j, y := range pivot.Years {
		column[y] = j
	}
	for i := range pivot.Cells {
		pivot.Cells[i] = make([]*float64, len(pivot.Years))
	}

	for _, r := range records {
		if !r.MonthRecognized {
			continue
		}
		row := r.MonthIndex - 1
		col := column[r.Year]
		if pivot.Cells[row][col] == nil {
			pivot.Cells[row][col] = new(float64)
		}
		*pivot.Cells[row][col] += r.VolumeKg
	}

	return pivot
}
