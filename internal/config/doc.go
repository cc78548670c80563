// Package config provides configuration management for the fish production
// service. It loads settings from defaults, an optional YAML file and
// environment variables, and holds the domain constants shared by the
// ingestion and aggregation code.
//
// # Configuration Sources
//
// Configuration is resolved in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. YAML file (FISH_CONFIG_FILE, or config.yaml / configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern FISH_<SECTION>_<FIELD>:
//
//	FISH_SERVER_PORT=8080
//	FISH_LOGGING_LEVEL=debug
//	FISH_INGEST_MAX_UPLOAD_BYTES=1048576
//	FISH_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Domain Constants
//
// The canonical month list, the volume sentinels and the accepted column
// labels live in constants.go. They are not runtime-configurable.
package config
