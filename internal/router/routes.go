package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/bizdirectory/api/internal/auth"
	"github.com/octobees/bizdirectory/api/internal/config"
	"github.com/octobees/bizdirectory/api/internal/handler"
	middlewarepkg "github.com/octobees/bizdirectory/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Businesses      *handler.BusinessesHandler
	AdminImport     *handler.AdminImportHandler
	AdminBusinesses *handler.AdminBusinessHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, tokens middlewarepkg.TokenParser, gatherer prometheus.Gatherer, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/businesses", handlers.Businesses.List)
	e.GET("/businesses/featured", handlers.Businesses.Featured)
	e.GET("/businesses/random", handlers.Businesses.Random)

	admin := e.Group("/admin", middlewarepkg.JWT(tokens), middlewarepkg.RequireRole(auth.RoleAdmin))

	importLimiter := middlewarepkg.ImportRateLimiter(cfg.RateLimitImport)
	admin.POST("/import", handlers.AdminImport.Upload, importLimiter)
	admin.POST("/import/remote", handlers.AdminImport.Remote, importLimiter)

	admin.PATCH("/businesses/:place_id/featured", handlers.AdminBusinesses.SetFeatured)
	admin.DELETE("/businesses/:place_id", handlers.AdminBusinesses.Delete)
}
