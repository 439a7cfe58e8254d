package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/middleware"
	"github.com/octobees/bizdirectory/api/internal/service/importer"
	"github.com/octobees/bizdirectory/api/internal/source"
)

// FileImporter runs a bulk import over a raw upload.
type FileImporter interface {
	ImportFile(ctx context.Context, data []byte, filename string, opts dto.ImportOptions) (dto.ImportResult, error)
}

// AdminImportHandler handles dataset ingestion for administrators.
type AdminImportHandler struct {
	importer       FileImporter
	fetcher        source.Fetcher
	maxUploadBytes int64
}

// NewAdminImportHandler wires the import endpoints. fetcher may be nil when no
// dataset source is configured; maxUploadBytes <= 0 disables the size check.
func NewAdminImportHandler(importer FileImporter, fetcher source.Fetcher, maxUploadBytes int64) *AdminImportHandler {
	return &AdminImportHandler{importer: importer, fetcher: fetcher, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /admin/import multipart requests.
func (h *AdminImportHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing upload file")
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return Error(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
	}

	opts, err := parseFormOptions(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	reader := io.Reader(file)
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to read file")
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		return Error(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
	}

	return h.run(c, data, fileHeader.Filename, opts)
}

// Remote handles POST /admin/import/remote requests.
func (h *AdminImportHandler) Remote(c echo.Context) error {
	if h.fetcher == nil {
		return Error(c, http.StatusServiceUnavailable, "dataset source is not configured")
	}

	var req dto.RemoteImportRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Options.BatchSize < 0 {
		return Error(c, http.StatusBadRequest, "batch_size must be positive")
	}

	dataset, err := h.fetcher.Fetch(c.Request().Context(), req.Path, middleware.RequestIDFromContext(c))
	if err != nil {
		var statusErr *source.StatusError
		switch {
		case errors.Is(err, source.ErrInvalidPath):
			return Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, source.ErrTooLarge):
			return Error(c, http.StatusRequestEntityTooLarge, err.Error())
		case errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound:
			return Error(c, http.StatusNotFound, "dataset not found")
		default:
			return Error(c, http.StatusBadGateway, "failed to fetch dataset")
		}
	}

	return h.run(c, dataset.Data, dataset.Name, req.Options)
}

func (h *AdminImportHandler) run(c echo.Context, data []byte, filename string, opts dto.ImportOptions) error {
	result, err := h.importer.ImportFile(c.Request().Context(), data, filename, opts)
	if err != nil {
		var inputErr importer.InputError
		switch {
		case errors.Is(err, importer.ErrEmptyUpload):
			return Error(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &inputErr):
			return Error(c, http.StatusBadRequest, inputErr.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ErrorWithData(c, http.StatusServiceUnavailable, "import interrupted", result)
		default:
			return Error(c, http.StatusInternalServerError, "failed to process import")
		}
	}

	message := "import processed"
	if opts.ValidateOnly {
		message = "import validated"
	}
	return Success(c, http.StatusOK, message, result)
}

func parseFormOptions(c echo.Context) (dto.ImportOptions, error) {
	var opts dto.ImportOptions
	flags := map[string]*bool{
		"update_duplicates": &opts.UpdateDuplicates,
		"skip_duplicates":   &opts.SkipDuplicates,
		"validate_only":     &opts.ValidateOnly,
	}
	for name, target := range flags {
		raw := strings.TrimSpace(c.FormValue(name))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid %s flag", name)
		}
		*target = value
	}

	if raw := strings.TrimSpace(c.FormValue("batch_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return opts, errors.New("batch_size must be a positive integer")
		}
		opts.BatchSize = size
	}
	return opts, nil
}
