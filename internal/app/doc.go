// Package app wires the fish production dashboard API together and manages
// its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, optional YAML file, FISH_* environment)
//	2. Initialize structured logging and OpenTelemetry
//	3. Create the exporter, the dataset session service and the health service
//	4. Build the chi router and its middleware chain
//	5. Configure the HTTP server
//
// # Middleware Chain
//
// Every request passes through RequestID, RealIP, OTel tracing and metrics,
// the structured request logger, panic recovery, slash stripping, security
// headers and CORS. Routes under /api additionally get a request deadline,
// response compression and the token bucket rate limiter.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT, SIGTERM or a listener failure, then Stop drains
// in-flight requests, halts the idle session sweeper and flushes telemetry
// within the configured shutdown timeout.
package app
