// Package dataprocessing turns uploaded fish-production tables into clean
// record sets and derives the aggregates the dashboard displays.
//
// # Architecture
//
// The package is organized into four parts:
//
// 1. Parser: Normalizer reads tab- or comma-delimited text (or an xlsx
// workbook) and cleans every row into a domain.ProductionRecord
// 2. Processor: Deduplicate and Filter build derived record slices
// 3. Analytics: pure aggregation functions (totals, averages, rankings, pivots)
// 4. Cache: NormalizeCache memoizes normalization per session by content hash
//
// # Usage
//
//	n := dataprocessing.NewNormalizer(logger)
//	ds, err := n.Normalize(ctx, "produksi.tsv", raw)
//	if err != nil {
//	    return err
//	}
//	kpis := dataprocessing.Summarize(ds.Select(filter))
//
// # Data Flow
//
//	bytes → Normalizer → Dataset → Filter → aggregations → exporter
//
// # Error Handling
//
// Only structural problems reject an upload: undecodable text, or a header
// without the required columns under both delimiters. Those come back as an
// AppError of type PARSING wrapping a *ParseError. Bad cells never fail:
//
//   - volume sentinels and unparseable numbers become 0
//   - unknown month labels get month index 1 and MonthRecognized=false
//   - years that cannot form a date get config.SentinelPeriod
//
// Dataset.Info counts each fallback so callers can surface data quality.
package dataprocessing
