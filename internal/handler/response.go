package handler

import (
	"encoding/json"
	"net/http"

	apperrors "contact-api/pkg/errors"
	"contact-api/pkg/logger"
)

// SuccessResponse is the envelope for successful API responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// respondJSON writes v as JSON with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// errorWriter renders AppErrors. Internal errors get the endpoint's own
// message, and their cause is only exposed outside production.
type errorWriter struct {
	exposeInternal bool
	logger         *logger.Logger
}

func (e errorWriter) write(w http.ResponseWriter, err error, internalMessage string) {
	appErr := apperrors.AsAppError(err)
	if appErr.Type == apperrors.ErrorTypeInternal {
		e.logger.WithError(err).Error("Request failed")
		if internalMessage != "" {
			rendered := *appErr
			rendered.Message = internalMessage
			appErr = &rendered
		}
	}
	respondJSON(w, appErr.StatusCode, apperrors.NewErrorResponse(appErr, e.exposeInternal), e.logger)
}
