// Package services implements the business logic layer between the HTTP
// handlers and the workbook packages.
//
// AnalysisService runs an uploaded workbook through parsing, fallback fill
// and counting, then keeps the result in a ResultStore so the results page
// can offer a download by token. When a token has expired the client can
// still download by posting the encoded result payload back.
//
//	store := services.NewResultStore(cfg.Results.TTL, cfg.Results.Capacity, cfg.Results.SweepInterval,
//	    services.WithStoreMetrics(metrics), services.WithStoreLogger(logger))
//	defer store.Close()
//
//	svc := services.NewAnalysisService(store, metrics, tracer, logger)
//	result, err := svc.Analyze(ctx, upload, domain.AnalysisTypeReport)
//	name, data, err := svc.ExportToken(ctx, result.Token)
//
// Errors are returned as *errors.AppError values so handlers can map them to
// problem responses; unknown or expired tokens return ErrResultNotFound.
//
// HealthService reports liveness, readiness and build information.
package services
