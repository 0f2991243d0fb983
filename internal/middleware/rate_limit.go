package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"contact-api/internal/service"
	"contact-api/pkg/errors"
	"contact-api/pkg/logger"
	"contact-api/pkg/metrics"
)

const rateLimitMessage = "Too many contact form submissions, please try again later."

// RateLimit limits requests per client IP with a fixed window, keyed on
// RemoteAddr. Forwarded addresses only count when chi's RealIP ran first.
// When the limiter itself fails the request is let through.
func RateLimit(limiter service.RateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			info, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				metrics.RecordIntegrationError("rate_limiter")
				log.WithError(err).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := strconv.Itoa(int(math.Ceil(info.TTL.Seconds())))
			w.Header().Set("RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
			w.Header().Set("RateLimit-Remaining", strconv.FormatInt(info.Remaining(), 10))
			w.Header().Set("RateLimit-Reset", resetSeconds)

			if !info.IsAllowed {
				metrics.RecordRateLimited()
				log.WithFields(map[string]interface{}{
					"ip":            ip,
					"request_count": info.RequestCount,
				}).Warn("Rate limit exceeded")

				w.Header().Set("Retry-After", resetSeconds)
				writeErrorResponse(w, errors.NewRateLimitError(rateLimitMessage), log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr when present
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if err := json.NewEncoder(w).Encode(errors.NewErrorResponse(appErr, false)); err != nil {
		log.WithError(err).Error("Failed to encode error response")
	}
}
