package api

import (
	"errors"
	"log/slog"
	"net/http"

	"sitekit/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = jsonErrorHandler

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(RequestLogger())
	e.Use(middleware.BodyLimit("25M"))

	// Health & stats
	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)

	// Contact form
	e.POST("/api/contact", handler.HandleContact)

	// Admin
	e.GET("/api/leads", handler.HandleLeads)

	return e
}

// jsonErrorHandler renders every unhandled error as a JSON body, so the
// form frontend never sees an HTML error page. 404 and 405 keep their
// echo messages; everything else collapses to a generic 500.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "An error occurred. Please try again later."

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok && code != http.StatusInternalServerError {
			msg = s
		}
	}

	if code == http.StatusInternalServerError {
		slog.Error("unhandled request error", "path", c.Request().URL.Path, "error", err)
	}

	if err := c.JSON(code, echo.Map{"error": msg}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
