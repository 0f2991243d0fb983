package handler

import (
	"net/http"
	"time"

	"contact-api/internal/service"
	"contact-api/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	service service.SubmissionService
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc service.SubmissionService, log *logger.Logger) *HealthHandler {
	return &HealthHandler{service: svc, logger: log}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Timestamp string `json:"timestamp"`
}

// RootResponse describes the service and its endpoints
type RootResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Database  string            `json:"database"`
	Endpoints map[string]string `json:"endpoints"`
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health(r.Context())

	respondJSON(w, http.StatusOK, RootResponse{
		Success:  true,
		Message:  "Contact Form API Server is running!",
		Database: databaseState(status.DatabaseConnected),
		Endpoints: map[string]string{
			"contact":      "POST /api/contact",
			"health":       "GET /api/health",
			"stats":        "GET /api/contact/stats",
			"allContacts":  "GET /api/contact/all",
			"export":       "GET /api/contact/export",
			"contactByRef": "GET /api/contact/:reference",
			"updateStatus": "PUT /api/contact/:reference/status",
		},
	}, h.logger)
}

// Check handles GET /api/health. It always answers 200 and reports the
// state of each backing service.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health(r.Context())

	h.logger.WithFields(map[string]interface{}{
		"database": status.DatabaseConnected,
		"cache":    status.Cache,
	}).Debug("Health check completed")

	respondJSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Server is healthy",
		Database:  databaseState(status.DatabaseConnected),
		Cache:     status.Cache,
		Timestamp: time.Now().UTC().Format(isoMillis),
	}, h.logger)
}

// NotFound answers unknown routes
func (h *HealthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"message": "Route not found",
		"path":    r.URL.Path,
	}, h.logger)
}

func databaseState(connected bool) string {
	if connected {
		return "Connected"
	}
	return "Disconnected"
}
