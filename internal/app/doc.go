// Package app wires configuration, logging, telemetry, services and HTTP
// routing into a runnable Application and manages its lifecycle.
//
// # Initialization Flow
//
//  1. The caller loads config.Config and initializes the logger
//  2. OpenTelemetry providers and business metrics are created
//  3. The result store, analysis service and health service are built
//  4. The chi router mounts the HTML themes, the JSON API and /metrics
//  5. The HTTP server is created from the server configuration
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run serves until its context is cancelled or SIGINT/SIGTERM arrives. It
// then drains in-flight requests within the shutdown timeout, stops the
// result store sweeper and flushes telemetry. Errors are returned to the
// caller; the package never calls os.Exit.
package app
