// Package config loads the analysis server configuration.
//
// Values come from three layers, highest precedence first:
//
//  1. Environment variables prefixed with CASES_ (envconfig)
//  2. An optional YAML file (config.yaml or configs/config.yaml)
//  3. Built-in defaults (Default)
//
// Examples:
//
//	CASES_SERVER_PORT=8080
//	CASES_UPLOAD_MAX_BYTES=10485760
//	CASES_RESULTS_TTL=10m
//	CASES_LOGGING_LEVEL=debug
//	CASES_TELEMETRY_TRACE_EXPORTER=stdout
package config
