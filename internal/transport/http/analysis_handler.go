package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "casecount/internal/errors"
	"casecount/internal/middleware"
	"casecount/internal/validation"
	api "casecount/pkg/contracts/api/v1"
	"casecount/pkg/contracts/domain"
)

// multipartMemory is the part of an upload kept in memory before spilling
// to temporary files.
const multipartMemory = 8 << 20

// MaxPayloadBytes bounds the body of a payload download request.
const MaxPayloadBytes = 4 << 20

// AnalysisHandler serves uploads, results and downloads. The same handler
// backs both HTML themes and the JSON API; only the presenter differs.
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	presenter      Presenter
	validate       *validator.Validate
	files          *validation.FileValidator
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAnalysisHandler creates a handler rendering through presenter.
func NewAnalysisHandler(service AnalysisServiceInterface, presenter Presenter, validate *validator.Validate, maxUploadBytes int64, logger *slog.Logger) *AnalysisHandler {
	if validate == nil {
		validate = middleware.NewValidator()
	}
	logger = logger.With(slog.String("component", "analysis_handler"))
	return &AnalysisHandler{
		service:        service,
		presenter:      presenter,
		validate:       validate,
		files:          validation.NewFileValidator(logger),
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HTMLRoutes returns the browser routes.
func (h *AnalysisHandler) HTMLRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Index)
	r.Post("/analyze", h.Analyze)
	r.With(h.TokenCtx).Get("/download/{token}", h.DownloadToken)
	r.Post("/download", h.DownloadPayload)

	return r
}

// APIRoutes returns the JSON API routes. payloadMiddleware wraps only
// POST /download, the one route with a JSON body.
func (h *AnalysisHandler) APIRoutes(payloadMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/analysis-types", h.AnalysisTypes)
	r.Post("/analyses", h.Analyze)
	r.Route("/analyses/{token}", func(r chi.Router) {
		r.Use(h.TokenCtx)
		r.Get("/", h.GetResult)
		r.Get("/download", h.DownloadToken)
	})
	r.With(payloadMiddleware...).Post("/download", h.DownloadPayload)

	return r
}

// TokenCtx validates the {token} URL parameter.
func (h *AnalysisHandler) TokenCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := api.ResultRequest{Token: chi.URLParam(r, "token")}
		if err := middleware.ValidateStruct(h.validate, req); err != nil {
			h.presenter.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Index handles GET /
func (h *AnalysisHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.presenter.Index(w, r)
}

// AnalysisTypes handles GET /api/analysis-types
func (h *AnalysisHandler) AnalysisTypes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, analysisTypesResponse())
}

// Analyze handles POST /analyze and POST /api/analyses. The body is a
// multipart form with the workbook in "file" and the optional
// "analysis_type" field.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	reqID := chimiddleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(min(h.maxUploadBytes, multipartMemory)); err != nil {
		h.presenter.Error(w, r, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := api.AnalyzeRequest{AnalysisType: r.FormValue("analysis_type")}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.presenter.Error(w, r, err)
		return
	}
	analysisType, err := domain.ParseAnalysisType(req.AnalysisType)
	if err != nil {
		h.presenter.Error(w, r, apierrors.NewAppValidationError(err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.presenter.Error(w, r, uploadError(err))
		return
	}
	defer file.Close()

	if err := h.files.ValidateUploadName(header.Filename); err != nil {
		h.presenter.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "analyzing upload",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("analysis_type", analysisType.String()))

	result, err := h.service.Analyze(r.Context(), file, analysisType)
	if err != nil {
		h.presenter.Error(w, r, err)
		return
	}

	h.respond(w, r, result)
}

// GetResult handles GET /api/analyses/{token}
func (h *AnalysisHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.presenter.Error(w, r, err)
		return
	}
	h.respond(w, r, result)
}

// DownloadToken handles GET /download/{token} and GET /api/analyses/{token}/download
func (h *AnalysisHandler) DownloadToken(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.service.ExportToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.presenter.Error(w, r, err)
		return
	}
	writeWorkbook(w, name, data)
}

// DownloadPayload handles POST /download (form field "payload") and
// POST /api/download (JSON body {"payload": ...}).
func (h *AnalysisHandler) DownloadPayload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxPayloadBytes)

	var req api.DownloadRequest
	if isJSONRequest(r) {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.presenter.Error(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	} else {
		req.Payload = r.PostFormValue("payload")
	}

	if req.Payload == "" {
		h.presenter.Error(w, r, apierrors.NewMissingInputError("no result payload supplied"))
		return
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.presenter.Error(w, r, err)
		return
	}

	name, data, err := h.service.ExportEncoded(r.Context(), req.Payload)
	if err != nil {
		h.presenter.Error(w, r, err)
		return
	}
	writeWorkbook(w, name, data)
}

func (h *AnalysisHandler) respond(w http.ResponseWriter, r *http.Request, result *domain.AnalysisResult) {
	payload, err := h.service.Encode(result)
	if err != nil {
		h.presenter.Error(w, r, err)
		return
	}
	h.presenter.Result(w, r, &api.AnalysisResponse{
		Result:      result,
		DownloadURL: h.presenter.DownloadURL(result.Token),
		Payload:     payload,
	})
}

// uploadError classifies multipart and form file failures.
func uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return err
	case errors.Is(err, http.ErrMissingFile):
		return apierrors.NewMissingInputError("no file was uploaded")
	case errors.Is(err, http.ErrNotMultipart):
		return apierrors.NewMissingInputError("upload must be sent as multipart/form-data")
	default:
		return apierrors.InvalidRequestWithError(err)
	}
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mediaType, "application/json")
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", domain.WorkbookMIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
