package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts"
	api "casecount/pkg/contracts/api/v1"
	"casecount/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Theme selects the stylesheet of the HTML presenter.
type Theme string

const (
	ThemeModern  Theme = "modern"
	ThemeClassic Theme = "classic"
)

// Themes lists the available themes.
var Themes = []Theme{ThemeModern, ThemeClassic}

// ParseTheme converts a configuration value into a Theme. An empty value
// selects the modern theme.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThemeModern:
		return ThemeModern, nil
	case ThemeClassic:
		return ThemeClassic, nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

// barRow is one table row with its relative bar width in pixels.
type barRow struct {
	Rank     int
	Label    string
	Count    int
	BarWidth int
}

type tableData struct {
	Title  string
	Column string
	Rows   []barRow
}

type resultData struct {
	*domain.AnalysisResult
	BasePath       string
	SecondarySheet string
	ManagerRows    []barRow
	SecondaryRows  []barRow
	DownloadURL    string
	Payload        string
}

type pageData struct {
	Theme         Theme
	BasePath      string
	Version       string
	AnalysisTypes []domain.AnalysisType
	Selected      domain.AnalysisType
	Error         string
	Result        *resultData
}

// HTMLPresenter renders the upload form and results page.
type HTMLPresenter struct {
	theme        Theme
	basePath     string
	tmpl         *template.Template
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHTMLPresenter parses the page templates for theme. basePath is the
// prefix the presenter's routes are mounted under ("" for the root).
func NewHTMLPresenter(theme Theme, basePath string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) (*HTMLPresenter, error) {
	if _, err := ParseTheme(string(theme)); err != nil {
		return nil, err
	}
	tmpl, err := template.New("pages").
		Funcs(template.FuncMap{"tableView": tableView}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTMLPresenter{
		theme:        theme,
		basePath:     strings.TrimSuffix(basePath, "/"),
		tmpl:         tmpl,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "html_presenter"), slog.String("theme", string(theme))),
	}, nil
}

// Theme returns the presenter's theme.
func (p *HTMLPresenter) Theme() Theme {
	return p.theme
}

// Index renders the upload form.
func (p *HTMLPresenter) Index(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, p.page(domain.DefaultAnalysisType))
}

// Result renders the upload form followed by both tables.
func (p *HTMLPresenter) Result(w http.ResponseWriter, r *http.Request, resp *api.AnalysisResponse) {
	result := resp.Result
	data := p.page(result.Type)
	data.Result = &resultData{
		AnalysisResult: result,
		BasePath:       p.basePath,
		SecondarySheet: result.Type.SheetName(),
		ManagerRows:    barRows(result.Manager, result.MaxManager),
		SecondaryRows:  barRows(result.Secondary, result.MaxSecondary),
		DownloadURL:    resp.DownloadURL,
		Payload:        resp.Payload,
	}
	p.render(w, r, http.StatusOK, data)
}

// Error renders the upload form with the error message in-page.
func (p *HTMLPresenter) Error(w http.ResponseWriter, r *http.Request, err error) {
	problem := p.errorHandler.ErrorToProblem(err, r)
	p.logger.WarnContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("path", r.URL.Path))

	selected := domain.DefaultAnalysisType
	if t, perr := domain.ParseAnalysisType(r.FormValue("analysis_type")); perr == nil {
		selected = t
	}
	data := p.page(selected)
	data.Error = problem.Detail
	p.render(w, r, problem.Status, data)
}

// DownloadURL returns the themed download route for token.
func (p *HTMLPresenter) DownloadURL(token string) string {
	if token == "" {
		return ""
	}
	return p.basePath + "/download/" + token
}

func (p *HTMLPresenter) page(selected domain.AnalysisType) pageData {
	return pageData{
		Theme:         p.theme,
		BasePath:      p.basePath,
		Version:       contracts.Version,
		AnalysisTypes: domain.AnalysisTypes,
		Selected:      selected,
	}
}

func (p *HTMLPresenter) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.ErrorContext(r.Context(), "template execution failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func barRows(table domain.FrequencyTable, max int) []barRow {
	if max < 1 {
		max = 1
	}
	rows := make([]barRow, len(table.Entries))
	for i, e := range table.Entries {
		rows[i] = barRow{
			Rank:     i + 1,
			Label:    e.Label,
			Count:    e.Count,
			BarWidth: e.Count * 100 / max,
		}
	}
	return rows
}

func tableView(title, column string, rows []barRow) tableData {
	return tableData{Title: title, Column: column, Rows: rows}
}
