package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "casecount/internal/errors"
	api "casecount/pkg/contracts/api/v1"
	"casecount/pkg/contracts/domain"
)

// JSONPresenter renders results as JSON and errors as RFC 7807 problems.
type JSONPresenter struct {
	errorHandler *apierrors.ErrorHandler
	basePath     string
}

// NewJSONPresenter creates a presenter for the API mounted at basePath.
func NewJSONPresenter(errorHandler *apierrors.ErrorHandler, basePath string) *JSONPresenter {
	return &JSONPresenter{errorHandler: errorHandler, basePath: basePath}
}

// Index lists the selectable analysis types.
func (p *JSONPresenter) Index(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, analysisTypesResponse())
}

// Result renders resp as JSON.
func (p *JSONPresenter) Result(w http.ResponseWriter, r *http.Request, resp *api.AnalysisResponse) {
	render.JSON(w, r, resp)
}

// Error delegates to the problem details handler.
func (p *JSONPresenter) Error(w http.ResponseWriter, r *http.Request, err error) {
	p.errorHandler.HandleError(w, r, err)
}

// DownloadURL returns the API download route for token.
func (p *JSONPresenter) DownloadURL(token string) string {
	if token == "" {
		return ""
	}
	return p.basePath + "/analyses/" + token + "/download"
}

func analysisTypesResponse() api.AnalysisTypesResponse {
	types := make([]string, len(domain.AnalysisTypes))
	for i, t := range domain.AnalysisTypes {
		types[i] = t.String()
	}
	return api.AnalysisTypesResponse{Types: types, Default: domain.DefaultAnalysisType.String()}
}
