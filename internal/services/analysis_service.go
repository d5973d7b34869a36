package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"casecount/internal/dataprocessing"
	apierrors "casecount/internal/errors"
	"casecount/internal/exporter"
	"casecount/internal/infrastructure"
	"casecount/pkg/contracts/domain"
)

// Export sources recorded on the export metrics.
const (
	ExportSourceToken   = "token"
	ExportSourcePayload = "payload"
	ExportSourceDirect  = "direct"
)

// AnalysisService runs uploads through parse, fill and count, keeps the
// results for later download and builds the export workbook.
type AnalysisService struct {
	store   *ResultStore
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewAnalysisService creates an analysis service. A nil store disables
// token downloads; results can then only be exported from their payload.
func NewAnalysisService(store *ResultStore, metrics *infrastructure.BusinessMetrics, tracer trace.Tracer, logger *slog.Logger) *AnalysisService {
	if metrics == nil {
		metrics = infrastructure.NewNoopBusinessMetrics()
	}
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(infrastructure.MeterName)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &AnalysisService{
		store:   store,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger.With(slog.String("service", "analysis")),
	}
}

// Analyze reads an uploaded workbook and returns both breakdowns for the
// selected analysis type. When a store is configured the result carries a
// token for later download.
func (s *AnalysisService) Analyze(ctx context.Context, upload io.Reader, analysisType domain.AnalysisType) (result *domain.AnalysisResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analysis.analyze",
		trace.WithAttributes(attribute.String("analysis.type", analysisType.String())))
	defer span.End()

	logger := s.logger
	rows := 0
	defer func() {
		s.metrics.RecordAnalysis(ctx, analysisType.String(), rows, time.Since(start), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			logger.WarnContext(ctx, "analysis failed",
				slog.String("analysis_type", analysisType.String()),
				slog.String("error", err.Error()))
		}
	}()

	if !analysisType.Valid() {
		return nil, apierrors.NewAppValidationError("unsupported analysis type " + analysisType.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := dataprocessing.ParseCaseWorkbook(upload, domain.ManagerColumn, analysisType.Column())
	if err != nil {
		return nil, err
	}
	rows = table.Len()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err = dataprocessing.Aggregate(table, analysisType)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		stored, err := s.store.Put(ctx, result)
		if err != nil {
			logger.WarnContext(ctx, "result not cached, download must use payload",
				slog.String("error", err.Error()))
		} else {
			result = stored
		}
	}

	span.SetAttributes(
		attribute.Int("analysis.rows", rows),
		attribute.Int("analysis.filled_rows", result.FilledRows),
		attribute.Int("analysis.managers", result.Manager.Len()),
	)
	logger.InfoContext(ctx, "analysis completed",
		slog.String("analysis_type", analysisType.String()),
		slog.String("sheet", table.Sheet),
		slog.Int("rows", rows),
		slog.Int("filled_rows", result.FilledRows),
		slog.Int("managers", result.Manager.Len()),
		slog.Int("secondary_managers", result.Secondary.Len()),
		slog.String("token", result.Token),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Result returns the cached result for token.
func (s *AnalysisService) Result(ctx context.Context, token string) (*domain.AnalysisResult, error) {
	if s.store == nil {
		return nil, ErrResultNotFound
	}
	result, ok := s.store.Get(ctx, token)
	if !ok {
		return nil, ErrResultNotFound
	}
	return result, nil
}

// Export builds the two-sheet workbook for result and returns the suggested
// filename with the file contents.
func (s *AnalysisService) Export(ctx context.Context, result *domain.AnalysisResult) (string, []byte, error) {
	return s.export(ctx, result, ExportSourceDirect)
}

// ExportToken exports the cached result for token.
func (s *AnalysisService) ExportToken(ctx context.Context, token string) (string, []byte, error) {
	result, err := s.Result(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return s.export(ctx, result, ExportSourceToken)
}

// ExportEncoded exports a result carried by the client as an encoded
// payload (see Encode).
func (s *AnalysisService) ExportEncoded(ctx context.Context, payload string) (string, []byte, error) {
	result, err := exporter.DecodeResult(payload)
	if err != nil {
		return "", nil, err
	}
	return s.export(ctx, result, ExportSourcePayload)
}

// Encode returns the URL-safe payload for result.
func (s *AnalysisService) Encode(result *domain.AnalysisResult) (string, error) {
	return exporter.EncodeResult(result)
}

// Verify reads back a workbook produced by Export and returns its tables.
func (s *AnalysisService) Verify(ctx context.Context, workbook []byte) (domain.FrequencyTable, domain.FrequencyTable, error) {
	_, span := s.tracer.Start(ctx, "analysis.verify")
	defer span.End()
	return exporter.ReadWorkbook(bytes.NewReader(workbook))
}

func (s *AnalysisService) export(ctx context.Context, result *domain.AnalysisResult, source string) (string, []byte, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.export",
		trace.WithAttributes(attribute.String("export.source", source)))
	defer span.End()

	if result == nil {
		return "", nil, apierrors.NewExportError("no analysis result to export", nil)
	}

	data, err := exporter.BuildWorkbook(result)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return "", nil, err
	}
	s.metrics.RecordExport(ctx, source, len(data))
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"analysis.type":  result.Type.String(),
		"workbook.bytes": len(data),
		"workbook.file":  result.OutputFile,
	})

	s.logger.InfoContext(ctx, "workbook exported",
		slog.String("analysis_type", result.Type.String()),
		slog.String("source", source),
		slog.String("file", result.OutputFile),
		slog.Int("bytes", len(data)))

	return result.OutputFile, data, nil
}
