// Package app wires configuration, telemetry, the analysis service and the
// HTTP API into one Application and manages its lifecycle.
//
// Initialization order:
//
//	1. Load configuration (defaults, YAML file, MACRO_* environment)
//	2. Initialize slog and OpenTelemetry
//	3. Create the analysis and health services and the report writers
//	4. Build the chi router and the HTTP server
//
// Run blocks until SIGINT or SIGTERM, then shuts the server and the
// telemetry providers down within Server.ShutdownTimeout.
package app
