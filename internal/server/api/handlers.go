package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"sitekit/internal/server/config"
	"sitekit/internal/server/database"
	"sitekit/internal/server/service"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Handler contains the HTTP handlers for the contact API.
// db and repo are nil when the server runs without Postgres; the
// endpoints that need them report the database as disabled.
type Handler struct {
	svc  *service.ContactService
	db   *database.DB
	repo *database.Repository
	cfg  *config.Config
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(svc *service.ContactService, db *database.DB, repo *database.Repository, cfg *config.Config) *Handler {
	return &Handler{svc: svc, db: db, repo: repo, cfg: cfg}
}

// HandleContact handles POST /api/contact.
// Accepts a JSON body or a multipart form; attachments go in the
// repeated "files" form field.
func (h *Handler) HandleContact(c echo.Context) error {
	sub := new(service.Submission)
	if err := c.Bind(sub); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "malformed request body",
		})
	}

	// HTML checkboxes post "on"; JSON clients post booleans (already
	// bound above).
	if v := c.FormValue("consent"); v != "" {
		sub.Consent = checkboxOn(v)
	}
	if v := c.FormValue("newsletter"); v != "" {
		sub.Newsletter = checkboxOn(v)
	}

	sub.IP = c.RealIP()
	sub.UserAgent = c.Request().UserAgent()
	if sub.Referrer == "" {
		sub.Referrer = c.Request().Referer()
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	result, err := h.svc.Process(c.Request().Context(), sub, files)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"message":         result.Message,
		"email_sent":      result.EmailSent,
		"auto_reply_sent": result.AutoReplySent,
	})
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database
// connectivity when a database is configured.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "disabled"

	if h.db != nil {
		dbStatus = "connected"
		if err := h.db.HealthCheck(c.Request().Context()); err != nil {
			status = "degraded"
			dbStatus = fmt.Sprintf("error: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
// Returns aggregate lead statistics.
func (h *Handler) HandleStats(c echo.Context) error {
	if h.repo == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "database not configured",
		})
	}

	stats, err := h.repo.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_leads":      stats.TotalLeads,
		"leads_this_week":  stats.LeadsThisWeek,
		"leads_this_month": stats.LeadsThisMonth,
		"emails_sent":      stats.EmailsSent,
	})
}

// leadResponse is the JSON shape of one lead on the admin endpoint.
type leadResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Country   string    `json:"country"`
	Purpose   string    `json:"purpose"`
	Budget    string    `json:"budget,omitempty"`
	Timeline  string    `json:"timeline,omitempty"`
	Message   string    `json:"message"`
	EmailSent bool      `json:"email_sent"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleLeads handles GET /api/leads.
// Admin-only: the X-Admin-Password header must match the configured
// bcrypt hash. Disabled entirely when no hash is configured.
func (h *Handler) HandleLeads(c echo.Context) error {
	if h.cfg.AdminPasswordHash == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if h.repo == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "database not configured",
		})
	}

	password := c.Request().Header.Get("X-Admin-Password")
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	leads, err := h.repo.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve leads",
		})
	}

	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, leadResponse{
			ID:        l.ID,
			FirstName: l.FirstName,
			LastName:  l.LastName,
			Email:     l.Email,
			Company:   l.Company,
			Country:   l.Country,
			Purpose:   l.Purpose,
			Budget:    l.Budget,
			Timeline:  l.Timeline,
			Message:   l.Message,
			EmailSent: l.EmailSent,
			CreatedAt: l.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(out),
		"leads": out,
	})
}

// mapServiceError translates service-layer errors into HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	var verr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error": "Too many requests. Please try again later.",
		})
	case errors.Is(err, service.ErrSpamRejected):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Submission rejected",
		})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": verr.Errors,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "An error occurred. Please try again later.",
		})
	}
}

func checkboxOn(v string) bool {
	return v == "on" || v == "true" || v == "1"
}
