// Package services implements the business logic layer between the HTTP
// handlers and the dataprocessing package.
//
// # Available Services
//
//   - DatasetService: per-session dataset storage, uploads, filtered
//     aggregate queries and exports
//   - HealthService: liveness, readiness and version information
//
// # Sessions
//
// Each session owns at most one dataset plus the normalization cache that
// produced it. Sessions idle for longer than the configured TTL are closed
// by a sweeper goroutine started with DatasetService.Start.
//
// # Error Handling
//
// Services return errors from the internal/errors taxonomy so the
// transport layer can map them to problem responses:
//
//   - SessionNotFound for unknown session ids
//   - DatasetNotLoaded when a query arrives before an upload
//   - PARSING errors for rejected uploads
//   - CAPACITY errors when the session limit is reached
package services
