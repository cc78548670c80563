package http

import (
	"context"
	"io"

	"fishpulse/internal/dataprocessing"
	"fishpulse/internal/exporter"
	"fishpulse/pkg/contracts/domain"
)

// DatasetServiceInterface defines the session and query operations the
// handlers depend on
type DatasetServiceInterface interface {
	CreateSession(ctx context.Context) (string, error)
	CloseSession(ctx context.Context, id string) error

	Upload(ctx context.Context, id, name string, raw []byte) (*dataprocessing.Dataset, bool, error)
	Dataset(ctx context.Context, id string) (domain.DatasetInfo, error)
	CacheStats(ctx context.Context, id string) (dataprocessing.CacheStats, error)

	Records(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.ProductionRecord, error)
	Facets(ctx context.Context, id string) (domain.Facets, error)
	KPIs(ctx context.Context, id string, filter domain.ProductionFilter) (domain.KPISummary, error)
	Trend(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.TrendPoint, error)
	TopSpecies(ctx context.Context, id string, filter domain.ProductionFilter, n int) ([]domain.SpeciesVolume, error)
	Yearly(ctx context.Context, id string, filter domain.ProductionFilter) ([]domain.YearVolume, error)
	Pivot(ctx context.Context, id string, filter domain.ProductionFilter) (domain.PivotTable, error)
	Report(ctx context.Context, id string, filter domain.ProductionFilter) (dataprocessing.Report, error)
	Export(ctx context.Context, id string, filter domain.ProductionFilter, format exporter.Format, w io.Writer) (int, error)
}
