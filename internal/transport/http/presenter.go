package http

import (
	"net/http"

	api "casecount/pkg/contracts/api/v1"
)

// Presenter renders the outcome of an analysis request. The HTML themes and
// the JSON API share one handler and differ only in their presenter.
type Presenter interface {
	// Index renders the entry point (the upload form for HTML).
	Index(w http.ResponseWriter, r *http.Request)
	// Result renders a completed analysis.
	Result(w http.ResponseWriter, r *http.Request, resp *api.AnalysisResponse)
	// Error renders a failed request.
	Error(w http.ResponseWriter, r *http.Request, err error)
	// DownloadURL returns the link that downloads the stored result for token,
	// or "" when token is empty.
	DownloadURL(token string) string
}
