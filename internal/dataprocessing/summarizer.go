package dataprocessing

import (
	"context"
	"log/slog"
	"slices"

	"fishpulse/internal/config"
	"fishpulse/pkg/contracts/domain"
)

// Summarize computes the four headline KPIs of records
func Summarize(records []domain.ProductionRecord) domain.KPISummary {
	return domain.KPISummary{
		TotalVolumeKg:    TotalVolume(records),
		MonthlyAverageKg: MonthlyAverage(records),
		SpeciesCount:     SpeciesCount(records),
		BestYear:         BestYearLabel(records),
	}
}

// BuildFacets lists the values a caller can filter records by.
// Years and species are sorted; months keep their first-seen order.
// DefaultSpecies is the first config.DefaultSpeciesSelection species, or all
// of them when there are fewer.
func BuildFacets(records []domain.ProductionRecord) domain.Facets {
	facets := domain.Facets{
		Years:   []int{},
		Months:  []string{},
		Species: []string{},
	}

	years := make(map[int]struct{})
	months := make(map[string]struct{})
	species := make(map[string]struct{})

	for _, r := range records {
		if _, ok := years[r.Year]; !ok {
			years[r.Year] = struct{}{}
			facets.Years = append(facets.Years, r.Year)
		}
		if _, ok := months[r.MonthName]; !ok {
			months[r.MonthName] = struct{}{}
			facets.Months = append(facets.Months, r.MonthName)
		}
		if _, ok := species[r.Species]; !ok {
			species[r.Species] = struct{}{}
			facets.Species = append(facets.Species, r.Species)
		}
	}

	slices.Sort(facets.Years)
	slices.Sort(facets.Species)

	n := min(len(facets.Species), config.DefaultSpeciesSelection)
	facets.DefaultSpecies = slices.Clone(facets.Species[:n])

	return facets
}

// Report bundles every aggregate of one record selection
type Report struct {
	KPIs       domain.KPISummary      `json:"kpis"`
	Trend      []domain.TrendPoint    `json:"trend"`
	TopSpecies []domain.SpeciesVolume `json:"top_species"`
	Yearly     []domain.YearVolume    `json:"yearly"`
	Pivot      domain.PivotTable      `json:"pivot"`
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	TopSpecies int // length of the species ranking
}

// DefaultSummarizerConfig returns the dashboard defaults
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{TopSpecies: config.DefaultTopSpecies}
}

// Summarizer produces complete reports for a record selection.
type Summarizer struct {
	logger     *slog.Logger
	topSpecies int
}

// NewSummarizer creates a summarizer. A non-positive TopSpecies falls back to
// config.DefaultTopSpecies.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopSpecies <= 0 {
		cfg.TopSpecies = config.DefaultTopSpecies
	}

	return &Summarizer{
		logger:     logger.With(slog.String("component", "summarizer")),
		topSpecies: cfg.TopSpecies,
	}
}

// Generate computes every aggregate for records
func (s *Summarizer) Generate(ctx context.Context, records []domain.ProductionRecord) Report {
	report := Report{
		KPIs:       Summarize(records),
		Trend:      MonthlyTrend(records),
		TopSpecies: TopSpecies(records, s.topSpecies),
		Yearly:     YearlyTotals(records),
		Pivot:      MonthYearPivot(records),
	}

	s.logger.DebugContext(ctx, "report generated",
		slog.Int("record_count", len(records)),
		slog.Int("periods", len(report.Trend)),
		slog.String("best_year", report.KPIs.BestYear))

	return report
}
