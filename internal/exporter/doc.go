// Package exporter turns production records into downloadable tables.
//
// BuildExportRows flattens and sorts records (year descending, then volume
// descending). WriteExportCSV and WriteExportXLSX render those rows; Exporter
// wraps both behind a Format and maps write failures into the application
// error taxonomy.
//
// Example usage:
//
//	e := exporter.NewExporter(logger, exporter.WriteOptions{BOMPrefix: true})
//	n, err := e.Export(ctx, w, exporter.FormatCSV, records)
package exporter
