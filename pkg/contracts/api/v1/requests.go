// Package api contains the JSON API contracts for the case analysis service.
package api

import (
	"casecount/pkg/contracts/domain"
)

// AnalyzeRequest carries the form fields sent with an uploaded workbook.
// The workbook itself travels as the multipart "file" part.
type AnalyzeRequest struct {
	AnalysisType string `json:"analysis_type" form:"analysis_type" validate:"omitempty,analysis_type"`
}

// ResultRequest addresses a stored analysis result.
type ResultRequest struct {
	Token string `json:"token" param:"token" validate:"required,uuid"`
}

// DownloadRequest exports a result carried as an encoded payload instead of
// a stored token.
type DownloadRequest struct {
	Payload string `json:"payload" form:"payload" validate:"required,result_payload"`
}

// AnalysisResponse is returned by POST /api/analyses and GET /api/analyses/{token}.
type AnalysisResponse struct {
	Result      *domain.AnalysisResult `json:"result"`
	DownloadURL string                 `json:"download_url"`
	Payload     string                 `json:"payload"`
}

// AnalysisTypesResponse lists the selectable dimensions.
type AnalysisTypesResponse struct {
	Types   []string `json:"types"`
	Default string   `json:"default"`
}
