package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "casecount/internal/errors"
	"casecount/pkg/contracts/domain"
)

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) Analyze(ctx context.Context, upload io.Reader, analysisType domain.AnalysisType) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, upload, analysisType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *mockAnalysisService) Result(ctx context.Context, token string) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *mockAnalysisService) ExportToken(ctx context.Context, token string) (string, []byte, error) {
	args := m.Called(ctx, token)
	data, _ := args.Get(1).([]byte)
	return args.String(0), data, args.Error(2)
}

func (m *mockAnalysisService) ExportEncoded(ctx context.Context, payload string) (string, []byte, error) {
	args := m.Called(ctx, payload)
	data, _ := args.Get(1).([]byte)
	return args.String(0), data, args.Error(2)
}

func (m *mockAnalysisService) Encode(result *domain.AnalysisResult) (string, error) {
	args := m.Called(result)
	return args.String(0), args.Error(1)
}

const testPayload = "eyJ0IjoiUmVwb3J0IE1hbmFnZXIifQ"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func exampleResult(token string) *domain.AnalysisResult {
	result := domain.NewAnalysisResult(domain.AnalysisTypeReport,
		domain.FrequencyTable{Column: domain.ManagerColumn, Entries: []domain.FrequencyEntry{{Label: "A", Count: 2}, {Label: "B", Count: 1}}},
		domain.FrequencyTable{Column: "Report Manager", Entries: []domain.FrequencyEntry{{Label: "A", Count: 1}, {Label: "X", Count: 1}, {Label: "B", Count: 1}}},
	)
	result.Token = token
	result.RowCount = 3
	return result
}

func newAPIRouter(svc *mockAnalysisService, maxUpload int64) http.Handler {
	logger := testLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewAnalysisHandler(svc, NewJSONPresenter(errorHandler, "/api"), nil, maxUpload, logger)

	r := chi.NewRouter()
	r.Mount("/api", h.APIRoutes())
	return r
}

func multipartUpload(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	return namedUpload(t, fields, "cases.xlsx", file)
}

func namedUpload(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeProblem(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &problem))
	return problem
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	svc := new(mockAnalysisService)
	token := uuid.NewString()
	result := exampleResult(token)

	svc.On("Analyze", mock.Anything, mock.Anything, domain.AnalysisTypeAssigning).Return(result, nil)
	svc.On("Encode", result).Return(testPayload, nil)

	body, contentType := multipartUpload(t, map[string]string{"analysis_type": "Assigning Manager"}, []byte("xlsx bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newAPIRouter(svc, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Result struct {
			Token        string `json:"token"`
			ReportColumn string `json:"report_col"`
			TotalCases   int    `json:"total_cases"`
			ManagerCases struct {
				Entries []domain.FrequencyEntry `json:"entries"`
			} `json:"manager_cases"`
		} `json:"result"`
		DownloadURL string `json:"download_url"`
		Payload     string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, token, resp.Result.Token)
	assert.Equal(t, "Report Manager", resp.Result.ReportColumn)
	assert.Equal(t, 3, resp.Result.TotalCases)
	assert.Len(t, resp.Result.ManagerCases.Entries, 2)
	assert.Equal(t, "/api/analyses/"+token+"/download", resp.DownloadURL)
	assert.Equal(t, testPayload, resp.Payload)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_AnalyzeDefaultType(t *testing.T) {
	svc := new(mockAnalysisService)
	result := exampleResult("")

	svc.On("Analyze", mock.Anything, mock.Anything, domain.AnalysisTypeReport).Return(result, nil)
	svc.On("Encode", result).Return(testPayload, nil)

	body, contentType := multipartUpload(t, nil, []byte("xlsx bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newAPIRouter(svc, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"download_url":""`, "uncached results have no download link")
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_AnalyzeRejected(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		file        []byte
		filename    string
		rawBody     string
		maxUpload   int64
		wantStatus  int
		wantType    string
		serviceErr  error
		callService bool
	}{
		{
			name:       "missing file",
			fields:     map[string]string{"analysis_type": "Report Manager"},
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeMissingInput,
		},
		{
			name:       "unknown analysis type",
			fields:     map[string]string{"analysis_type": "Team Lead"},
			file:       []byte("xlsx"),
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "not multipart",
			rawBody:    "plain",
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeMissingInput,
		},
		{
			name:       "upload too large",
			file:       bytes.Repeat([]byte("x"), 64<<10),
			maxUpload:  1 << 10,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   apierrors.TypePayloadTooLarge,
		},
		{
			name:       "not an excel file",
			file:       []byte("Manager,Report Manager"),
			filename:   "cases.csv",
			maxUpload:  1 << 20,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeParse,
		},
		{
			name:        "missing column",
			file:        []byte("xlsx"),
			maxUpload:   1 << 20,
			serviceErr:  apierrors.NewSchemaError([]string{"Report Manager"}),
			callService: true,
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    apierrors.TypeSchema,
		},
		{
			name:        "unreadable workbook",
			file:        []byte("xlsx"),
			maxUpload:   1 << 20,
			serviceErr:  apierrors.NewParsingError("file is not a readable xlsx workbook", nil),
			callService: true,
			wantStatus:  http.StatusUnprocessableEntity,
			wantType:    apierrors.TypeParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			if tt.callService {
				svc.On("Analyze", mock.Anything, mock.Anything, domain.AnalysisTypeReport).Return(nil, tt.serviceErr)
			}

			var req *http.Request
			if tt.rawBody != "" {
				req = httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader(tt.rawBody))
				req.Header.Set("Content-Type", "text/plain")
			} else {
				filename := tt.filename
				if filename == "" {
					filename = "cases.xlsx"
				}
				body, contentType := namedUpload(t, tt.fields, filename, tt.file)
				req = httptest.NewRequest(http.MethodPost, "/api/analyses", body)
				req.Header.Set("Content-Type", contentType)
			}
			rec := httptest.NewRecorder()

			newAPIRouter(svc, tt.maxUpload).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantType, problem["type"])
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_GetResult(t *testing.T) {
	token := uuid.NewString()
	result := exampleResult(token)

	svc := new(mockAnalysisService)
	svc.On("Result", mock.Anything, token).Return(result, nil)
	svc.On("Encode", result).Return(testPayload, nil)

	rec := httptest.NewRecorder()
	newAPIRouter(svc, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/"+token, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), token)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_GetResultNotFound(t *testing.T) {
	token := uuid.NewString()
	svc := new(mockAnalysisService)
	svc.On("Result", mock.Anything, token).Return(nil, apierrors.ErrResultNotFound)

	rec := httptest.NewRecorder()
	newAPIRouter(svc, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/"+token, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeResultNotFound, decodeProblem(t, rec.Body.Bytes())["type"])
}

func TestAnalysisHandler_InvalidToken(t *testing.T) {
	svc := new(mockAnalysisService)

	rec := httptest.NewRecorder()
	newAPIRouter(svc, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/not-a-token/download", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ExportToken", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_DownloadToken(t *testing.T) {
	token := uuid.NewString()
	svc := new(mockAnalysisService)
	svc.On("ExportToken", mock.Anything, token).Return("manager_case_analysis_report.xlsx", []byte("PK workbook"), nil)

	rec := httptest.NewRecorder()
	newAPIRouter(svc, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/"+token+"/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.WorkbookMIMEType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=manager_case_analysis_report.xlsx", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Equal(t, "PK workbook", rec.Body.String())
}

func TestAnalysisHandler_DownloadPayloadJSON(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("ExportEncoded", mock.Anything, testPayload).Return("manager_case_analysis_allotment.xlsx", []byte("PK"), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(`{"payload":"`+testPayload+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newAPIRouter(svc, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=manager_case_analysis_allotment.xlsx", rec.Header().Get("Content-Disposition"))
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_DownloadPayloadRejected(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		serviceErr error
	}{
		{"empty payload", `{"payload":""}`, http.StatusBadRequest, nil},
		{"invalid characters", `{"payload":"not base64!"}`, http.StatusBadRequest, nil},
		{"malformed json", `{"payload":`, http.StatusBadRequest, nil},
		{"undecodable", `{"payload":"` + testPayload + `"}`, http.StatusBadRequest, apierrors.NewExportError("result payload is not valid JSON", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalysisService)
			if tt.serviceErr != nil {
				svc.On("ExportEncoded", mock.Anything, testPayload).Return("", nil, tt.serviceErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			newAPIRouter(svc, 1<<20).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_AnalysisTypes(t *testing.T) {
	rec := httptest.NewRecorder()
	newAPIRouter(new(mockAnalysisService), 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis-types", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Types   []string `json:"types"`
		Default string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Report Manager", "Assigning Manager", "Allotment Manager"}, resp.Types)
	assert.Equal(t, "Report Manager", resp.Default)
}

func TestAnalysisHandler_HTMLDownloadPayloadForm(t *testing.T) {
	logger := testLogger()
	presenter, err := NewHTMLPresenter(ThemeClassic, "/classic", apierrors.NewErrorHandler(logger, false), logger)
	require.NoError(t, err)

	svc := new(mockAnalysisService)
	svc.On("ExportEncoded", mock.Anything, testPayload).Return("manager_case_analysis_report.xlsx", []byte("PK"), nil)

	r := chi.NewRouter()
	r.Mount("/classic", NewAnalysisHandler(svc, presenter, nil, 1<<20, logger).HTMLRoutes())

	form := url.Values{"payload": {testPayload}}
	req := httptest.NewRequest(http.MethodPost, "/classic/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.WorkbookMIMEType, rec.Header().Get("Content-Type"))
	svc.AssertExpectations(t)
}
