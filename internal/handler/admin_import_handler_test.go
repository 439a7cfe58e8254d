package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/middleware"
	"github.com/octobees/bizdirectory/api/internal/service/importer"
	"github.com/octobees/bizdirectory/api/internal/source"
)

type stubImporter struct {
	result      dto.ImportResult
	err         error
	gotData     []byte
	gotFilename string
	gotOpts     dto.ImportOptions
	calls       int
}

func (s *stubImporter) ImportFile(_ context.Context, data []byte, filename string, opts dto.ImportOptions) (dto.ImportResult, error) {
	s.calls++
	s.gotData = data
	s.gotFilename = filename
	s.gotOpts = opts
	return s.result, s.err
}

type stubFetcher struct {
	dataset      source.Dataset
	err          error
	gotPath      string
	gotRequestID string
}

func (s *stubFetcher) Fetch(_ context.Context, datasetPath, requestID string) (source.Dataset, error) {
	s.gotPath = datasetPath
	s.gotRequestID = requestID
	return s.dataset, s.err
}

func multipartRequest(t *testing.T, filename, content string, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/import", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req, httptest.NewRecorder()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestAdminImportHandler_UploadSuccess(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "listings.csv", "title,placeId\nCafe,p1\n", map[string]string{
		"update_duplicates": "true",
		"batch_size":        "25",
	})
	c := e.NewContext(req, rec)

	imp := &stubImporter{result: dto.ImportResult{Success: 1, Created: 1, Errors: []dto.RowError{}, Warnings: []string{}}}
	h := NewAdminImportHandler(imp, nil, 1<<20)

	if err := h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if imp.gotFilename != "listings.csv" || string(imp.gotData) != "title,placeId\nCafe,p1\n" {
		t.Fatalf("unexpected upload forwarded: %q %q", imp.gotFilename, imp.gotData)
	}
	if !imp.gotOpts.UpdateDuplicates || imp.gotOpts.SkipDuplicates || imp.gotOpts.BatchSize != 25 {
		t.Fatalf("unexpected options: %+v", imp.gotOpts)
	}

	payload := decodeEnvelope(t, rec)
	if payload["message"] != "import processed" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
	data := payload["data"].(map[string]any)
	if data["created"] != float64(1) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestAdminImportHandler_ValidateOnlyMessage(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "listings.csv", "title,placeId\nCafe,p1\n", map[string]string{"validate_only": "true"})
	c := e.NewContext(req, rec)

	h := NewAdminImportHandler(&stubImporter{}, nil, 0)
	_ = h.Upload(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if payload := decodeEnvelope(t, rec); payload["message"] != "import validated" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
}

func TestAdminImportHandler_UploadRejections(t *testing.T) {
	cases := map[string]struct {
		filename string
		content  string
		fields   map[string]string
		limit    int64
		want     int
	}{
		"missing file":   {want: http.StatusBadRequest},
		"bad flag":       {filename: "a.csv", content: "x", fields: map[string]string{"skip_duplicates": "maybe"}, want: http.StatusBadRequest},
		"bad batch size": {filename: "a.csv", content: "x", fields: map[string]string{"batch_size": "0"}, want: http.StatusBadRequest},
		"too large":      {filename: "a.csv", content: strings.Repeat("x", 64), limit: 16, want: http.StatusRequestEntityTooLarge},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req, rec := multipartRequest(t, tc.filename, tc.content, tc.fields)
			c := e.NewContext(req, rec)

			imp := &stubImporter{}
			h := NewAdminImportHandler(imp, nil, tc.limit)
			_ = h.Upload(c)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if imp.calls != 0 {
				t.Fatalf("importer must not run for rejected uploads")
			}
		})
	}
}

func TestAdminImportHandler_ImporterErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"empty upload": {err: importer.ErrEmptyUpload, want: http.StatusBadRequest},
		"input error":  {err: fmt.Errorf("parse upload: %w", importer.InputError{Message: "open spreadsheet: zip: not a valid zip file"}), want: http.StatusBadRequest},
		"canceled":     {err: context.Canceled, want: http.StatusServiceUnavailable},
		"unexpected":   {err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req, rec := multipartRequest(t, "a.csv", "title\n", nil)
			c := e.NewContext(req, rec)

			imp := &stubImporter{err: tc.err, result: dto.ImportResult{Success: 2, Created: 2}}
			h := NewAdminImportHandler(imp, nil, 0)
			_ = h.Upload(c)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestAdminImportHandler_InterruptedImportReturnsPartialResult(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "a.csv", "title\n", nil)
	c := e.NewContext(req, rec)

	imp := &stubImporter{err: context.DeadlineExceeded, result: dto.ImportResult{Success: 2, Created: 2}}
	h := NewAdminImportHandler(imp, nil, 0)
	_ = h.Upload(c)

	payload := decodeEnvelope(t, rec)
	data, ok := payload["data"].(map[string]any)
	if !ok || data["success"] != float64(2) {
		t.Fatalf("expected partial result in payload, got %v", payload)
	}
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestAdminImportHandler_RemoteSuccess(t *testing.T) {
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/admin/import/remote", `{"path":"exports/austin.csv","options":{"skip_duplicates":true}}`)
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyRequestID, "req-1")

	fetcher := &stubFetcher{dataset: source.Dataset{Name: "austin.csv", Data: []byte("title,placeId\n")}}
	imp := &stubImporter{}
	h := NewAdminImportHandler(imp, fetcher, 0)

	_ = h.Remote(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if fetcher.gotPath != "exports/austin.csv" || fetcher.gotRequestID != "req-1" {
		t.Fatalf("unexpected fetch: %q %q", fetcher.gotPath, fetcher.gotRequestID)
	}
	if imp.gotFilename != "austin.csv" || !imp.gotOpts.SkipDuplicates {
		t.Fatalf("unexpected import call: %q %+v", imp.gotFilename, imp.gotOpts)
	}
}

func TestAdminImportHandler_RemoteErrors(t *testing.T) {
	cases := map[string]struct {
		fetcher source.Fetcher
		body    string
		want    int
	}{
		"no source":     {body: `{"path":"a.csv"}`, want: http.StatusServiceUnavailable},
		"bad payload":   {fetcher: &stubFetcher{}, body: `{"path":`, want: http.StatusBadRequest},
		"bad path":      {fetcher: &stubFetcher{err: fmt.Errorf("%w: ..", source.ErrInvalidPath)}, body: `{"path":"../a.csv"}`, want: http.StatusBadRequest},
		"too large":     {fetcher: &stubFetcher{err: source.ErrTooLarge}, body: `{"path":"a.csv"}`, want: http.StatusRequestEntityTooLarge},
		"not found":     {fetcher: &stubFetcher{err: &source.StatusError{Code: http.StatusNotFound}}, body: `{"path":"a.csv"}`, want: http.StatusNotFound},
		"upstream down": {fetcher: &stubFetcher{err: &source.StatusError{Code: http.StatusBadGateway}}, body: `{"path":"a.csv"}`, want: http.StatusBadGateway},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req, rec := jsonRequest(http.MethodPost, "/admin/import/remote", tc.body)
			c := e.NewContext(req, rec)

			imp := &stubImporter{}
			h := NewAdminImportHandler(imp, tc.fetcher, 0)
			_ = h.Remote(c)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if imp.calls != 0 {
				t.Fatalf("importer must not run when the fetch fails")
			}
		})
	}
}
