package http

import (
	"context"
	"io"

	"casecount/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the operations the analysis handler needs
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, upload io.Reader, analysisType domain.AnalysisType) (*domain.AnalysisResult, error)
	Result(ctx context.Context, token string) (*domain.AnalysisResult, error)
	ExportToken(ctx context.Context, token string) (string, []byte, error)
	ExportEncoded(ctx context.Context, payload string) (string, []byte, error)
	Encode(result *domain.AnalysisResult) (string, error)
}
