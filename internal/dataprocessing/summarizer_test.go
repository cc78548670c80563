package dataprocessing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishpulse/internal/config"
	"fishpulse/internal/shared/testutil"
	"fishpulse/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.ProductionRecord
		want    domain.KPISummary
	}{
		{
			name:    "empty",
			records: nil,
			want:    domain.KPISummary{BestYear: NoBestYear},
		},
		{
			name: "two years",
			records: []domain.ProductionRecord{
				rec(2020, "Januari", "Tuna", 100),
				rec(2020, "Februari", "Tongkol", 50),
				rec(2021, "Januari", "Tuna", 300),
			},
			want: domain.KPISummary{
				TotalVolumeKg:    450,
				MonthlyAverageKg: 150,
				SpeciesCount:     2,
				BestYear:         "2021",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.records))
		})
	}
}

func TestBuildFacets(t *testing.T) {
	records := []domain.ProductionRecord{
		rec(2022, "Maret", "Tuna", 1),
		rec(2020, "Januari", "Cakalang", 1),
		rec(2021, "Maret", "Bawal", 1),
		rec(2022, "Februari", "Tuna", 1),
	}

	facets := BuildFacets(records)

	assert.Equal(t, []int{2020, 2021, 2022}, facets.Years)
	assert.Equal(t, []string{"Maret", "Januari", "Februari"}, facets.Months)
	assert.Equal(t, []string{"Bawal", "Cakalang", "Tuna"}, facets.Species)
	assert.Equal(t, facets.Species, facets.DefaultSpecies)
}

func TestBuildFacets_DefaultSpeciesSelection(t *testing.T) {
	var records []domain.ProductionRecord
	for i := 0; i < config.DefaultSpeciesSelection+5; i++ {
		records = append(records, rec(2020, "Januari", fmt.Sprintf("S%02d", i), 1))
	}

	facets := BuildFacets(records)

	require.Len(t, facets.Species, config.DefaultSpeciesSelection+5)
	require.Len(t, facets.DefaultSpecies, config.DefaultSpeciesSelection)
	assert.Equal(t, "S00", facets.DefaultSpecies[0])
	assert.Equal(t, facets.Species[:config.DefaultSpeciesSelection], facets.DefaultSpecies)
}

func TestBuildFacets_Empty(t *testing.T) {
	facets := BuildFacets(nil)

	assert.NotNil(t, facets.Years)
	assert.NotNil(t, facets.Months)
	assert.NotNil(t, facets.Species)
	assert.Empty(t, facets.DefaultSpecies)
}

func TestSummarizer_Generate(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	s := NewSummarizer(logger, SummarizerConfig{TopSpecies: 1})

	report := s.Generate(context.Background(), sampleRecords(t))

	assert.Equal(t, "2022", report.KPIs.BestYear)
	require.Len(t, report.TopSpecies, 1)
	assert.Equal(t, "Tuna", report.TopSpecies[0].Species)
	assert.Len(t, report.Yearly, 3)
	assert.Len(t, report.Trend, 5)
	assert.Equal(t, []int{2021, 2022, 2023}, report.Pivot.Years)
	assert.True(t, logs.ContainsMessage("report generated"))
}

func TestNewSummarizer_Defaults(t *testing.T) {
	s := NewSummarizer(nil, SummarizerConfig{})
	assert.Equal(t, config.DefaultTopSpecies, s.topSpecies)
	assert.Equal(t, DefaultSummarizerConfig().TopSpecies, s.topSpecies)
}
