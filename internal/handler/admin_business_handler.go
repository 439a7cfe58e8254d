package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/repository"
)

// BusinessMutator applies administrative changes to businesses.
type BusinessMutator interface {
	SetFeatured(ctx context.Context, placeID string, featured bool) error
	Delete(ctx context.Context, placeID string) error
}

// AdminBusinessHandler exposes administrative business endpoints.
type AdminBusinessHandler struct {
	businesses BusinessMutator
}

// NewAdminBusinessHandler constructs a handler instance.
func NewAdminBusinessHandler(businesses BusinessMutator) *AdminBusinessHandler {
	return &AdminBusinessHandler{businesses: businesses}
}

// SetFeatured handles PATCH /admin/businesses/:place_id/featured.
func (h *AdminBusinessHandler) SetFeatured(c echo.Context) error {
	placeID := strings.TrimSpace(c.Param("place_id"))
	if placeID == "" {
		return Error(c, http.StatusBadRequest, "place_id is required")
	}

	var req dto.SetFeaturedRequest
	if err := c.Bind(&req); err != nil || req.Featured == nil {
		return Error(c, http.StatusBadRequest, "featured flag is required")
	}

	if err := h.businesses.SetFeatured(c.Request().Context(), placeID, *req.Featured); err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return Error(c, http.StatusNotFound, "business not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to update business")
	}

	return Success(c, http.StatusOK, "business updated", map[string]any{
		"place_id": placeID,
		"featured": *req.Featured,
	})
}

// Delete handles DELETE /admin/businesses/:place_id.
func (h *AdminBusinessHandler) Delete(c echo.Context) error {
	placeID := strings.TrimSpace(c.Param("place_id"))
	if placeID == "" {
		return Error(c, http.StatusBadRequest, "place_id is required")
	}

	if err := h.businesses.Delete(c.Request().Context(), placeID); err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return Error(c, http.StatusNotFound, "business not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to delete business")
	}

	return Success(c, http.StatusOK, "business deleted", nil)
}
