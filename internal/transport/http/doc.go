// Package http implements the HTTP handlers of the case analysis service.
// Handlers stay thin: they parse the request, call the analysis service and
// hand the outcome to a Presenter.
//
// # Presenters
//
// One AnalysisHandler serves every front-end. The browser pages use an
// HTMLPresenter (modern or classic theme, same template data) and the JSON
// API uses a JSONPresenter:
//
//	modern, _ := http.NewHTMLPresenter(http.ThemeModern, "", errorHandler, logger)
//	r.Mount("/", http.NewAnalysisHandler(svc, modern, validate, maxUpload, logger).HTMLRoutes())
//
//	jsonp := http.NewJSONPresenter(errorHandler, "/api")
//	r.Mount("/api", http.NewAnalysisHandler(svc, jsonp, validate, maxUpload, logger).APIRoutes())
//
// # Routes
//
//	GET  /                           upload form
//	POST /analyze                    multipart upload, results page
//	GET  /download/{token}           workbook for a stored result
//	POST /download                   workbook from an encoded payload
//	POST /api/analyses               multipart upload, JSON result
//	GET  /api/analyses/{token}       stored result
//	GET  /api/analyses/{token}/download
//	POST /api/download               {"payload": "..."}
//
// # Error Handling
//
// The JSON presenter renders RFC 7807 problem details through the shared
// errors.ErrorHandler. The HTML presenter maps the error to the same status
// and shows the problem detail above the upload form.
package http
