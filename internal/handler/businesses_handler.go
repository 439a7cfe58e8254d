package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/entity"
)

// BusinessFinder serves public business listings.
type BusinessFinder interface {
	Search(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error)
	Featured(ctx context.Context, limit int) ([]entity.Business, error)
	Random(ctx context.Context, limit int) ([]entity.Business, error)
}

// BusinessesHandler exposes the public directory endpoints.
type BusinessesHandler struct {
	service BusinessFinder
}

// NewBusinessesHandler creates a new handler instance.
func NewBusinessesHandler(service BusinessFinder) *BusinessesHandler {
	return &BusinessesHandler{service: service}
}

// List handles GET /businesses requests.
func (h *BusinessesHandler) List(c echo.Context) error {
	filter := dto.BusinessFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		City:   strings.TrimSpace(c.QueryParam("city")),
		Limit:  parseIntDefault(c.QueryParam("limit"), dto.DefaultListLimit),
		Offset: parseIntDefault(c.QueryParam("offset"), 0),
	}

	if categoryParam := strings.TrimSpace(c.QueryParam("category_id")); categoryParam != "" {
		parsed, err := uuid.Parse(categoryParam)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid category_id")
		}
		filter.CategoryID = &parsed
	}

	if featuredParam := strings.TrimSpace(c.QueryParam("featured")); featuredParam != "" {
		featured, err := strconv.ParseBool(featuredParam)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid featured flag")
		}
		filter.Featured = &featured
	}

	businesses, err := h.service.Search(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list businesses")
	}

	return Success(c, http.StatusOK, "businesses retrieved", businesses)
}

// Featured handles GET /businesses/featured requests.
func (h *BusinessesHandler) Featured(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), dto.DefaultListLimit)
	businesses, err := h.service.Featured(c.Request().Context(), limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list featured businesses")
	}
	return Success(c, http.StatusOK, "featured businesses retrieved", businesses)
}

// Random handles GET /businesses/random requests.
func (h *BusinessesHandler) Random(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), dto.DefaultListLimit)
	businesses, err := h.service.Random(c.Request().Context(), limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list random businesses")
	}
	return Success(c, http.StatusOK, "random businesses retrieved", businesses)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
