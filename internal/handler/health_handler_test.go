package handler

import (
	"net/http"
	"testing"

	"contact-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name          string
		status        domain.HealthStatus
		expectedDB    string
		expectedCache string
	}{
		{
			name:          "all services up",
			status:        domain.HealthStatus{DatabaseConnected: true, Cache: domain.CacheConnected},
			expectedDB:    "Connected",
			expectedCache: "Connected",
		},
		{
			name:          "database down still answers 200",
			status:        domain.HealthStatus{DatabaseConnected: false, Cache: domain.CacheDisabled},
			expectedDB:    "Disconnected",
			expectedCache: "Disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSubmissionService)
			svc.On("Health", mock.Anything).Return(tt.status)
			router := routerFor(svc, false)

			rec, body := do(t, router, http.MethodGet, "/api/health", "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Server is healthy", body["message"])
			assert.Equal(t, tt.expectedDB, body["database"])
			assert.Equal(t, tt.expectedCache, body["cache"])
			assert.NotEmpty(t, body["timestamp"])
			svc.AssertExpectations(t)
		})
	}
}

func TestHealthHandler_Root(t *testing.T) {
	router := newTestRouter(t)

	rec, body := do(t, router, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contact Form API Server is running!", body["message"])
	assert.Equal(t, "Connected", body["database"])
	endpoints := body["endpoints"].(map[string]interface{})
	assert.Equal(t, "POST /api/contact", endpoints["contact"])
}

func TestHealthHandler_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/nothing-here", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, "/api/nothing-here", body["path"])
}
