package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"contact-api/internal/domain"
	"contact-api/internal/service"
	apperrors "contact-api/pkg/errors"
	"contact-api/pkg/export"
	"contact-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

const (
	msgSubmitted      = "Thank you for your message! We will get back to you soon."
	msgStatusUpdated  = "Contact status updated successfully"
	msgSubmitFailed   = "Sorry, there was an error processing your message. Please try again later."
	msgStatsFailed    = "Error retrieving contact statistics"
	msgListFailed     = "Error retrieving contacts"
	msgGetFailed      = "Error retrieving contact"
	msgUpdateFailed   = "Error updating contact status"
	msgExportFailed   = "Error exporting contacts"
	msgInvalidPayload = "Invalid request body"

	// ISO 8601 with milliseconds, as browsers print Date values
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// ContactHandler handles contact form HTTP requests
type ContactHandler struct {
	service      service.SubmissionService
	logger       *logger.Logger
	errors       errorWriter
	maxBodyBytes int64
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc service.SubmissionService, log *logger.Logger, exposeInternal bool, maxBodyBytes int64) *ContactHandler {
	return &ContactHandler{
		service:      svc,
		logger:       log,
		errors:       errorWriter{exposeInternal: exposeInternal, logger: log},
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes registers contact routes with the router. submitMiddleware
// only wraps the public form endpoint.
func (h *ContactHandler) RegisterRoutes(r chi.Router, submitMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/contact", func(r chi.Router) {
		r.With(submitMiddleware...).Post("/", h.Submit)

		// Admin endpoints
		r.Get("/stats", h.Stats)
		r.Get("/all", h.List)
		r.Get("/export", h.Export)
		r.Get("/{reference}", h.Get)
		r.Put("/{reference}/status", h.UpdateStatus)
	})
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmissionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errors.write(w, err, "")
		return
	}

	meta := domain.RequestMeta{
		IPAddress: remoteIP(r),
		UserAgent: r.UserAgent(),
	}

	submission, err := h.service.Submit(r.Context(), req, meta)
	if err != nil {
		h.errors.write(w, err, msgSubmitFailed)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: msgSubmitted,
		Data: domain.SubmitResponseData{
			SubmittedAt: submission.CreatedAt.UTC().Format(isoMillis),
			Reference:   submission.Reference,
		},
	}, h.logger)
}

// Stats handles GET /api/contact/stats
func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.errors.write(w, err, msgStatsFailed)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: stats}, h.logger)
}

// List handles GET /api/contact/all?page=&limit=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.errors.write(w, err, msgListFailed)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: result}, h.logger)
}

// Export handles GET /api/contact/export
func (h *ContactHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export(r.Context())
	if err != nil {
		h.errors.write(w, err, msgExportFailed)
		return
	}

	filename := fmt.Sprintf("contacts-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WithError(err).Warn("Failed to write export")
	}
}

// Get handles GET /api/contact/{reference}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	submission, err := h.service.Get(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.errors.write(w, err, msgGetFailed)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: submission}, h.logger)
}

// UpdateStatus handles PUT /api/contact/{reference}/status
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errors.write(w, err, "")
		return
	}

	submission, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "reference"), req.Status)
	if err != nil {
		h.errors.write(w, err, msgUpdateFailed)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: msgStatusUpdated,
		Data:    submission,
	}, h.logger)
}

// decode reads a JSON body no larger than maxBodyBytes
func (h *ContactHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apperrors.AppError{
				Type:       apperrors.ErrorTypeBadRequest,
				Message:    "Request body too large",
				StatusCode: http.StatusRequestEntityTooLarge,
				Internal:   err,
			}
		}
		return apperrors.NewBadRequestError(msgInvalidPayload, err)
	}
	return nil
}

// queryInt parses a query parameter, returning 0 when absent or malformed
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// remoteIP returns the socket address, or the forwarded one when RealIP ran
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
