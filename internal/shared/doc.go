// Package shared holds helpers used across packages that carry no domain
// logic of their own.
//
// The testutil subpackage provides a capturing slog handler and builders for
// fish-production input files so tests in dataprocessing, services and the
// HTTP transport exercise the same fixtures:
//
//	raw := testutil.NewProductionFile().
//	    Row("2023", "Januari", "Tuna", "1200").
//	    Row("2023", "Maret", "Cakalang", "-").
//	    TSV()
package shared
