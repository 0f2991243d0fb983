package service

import (
	"context"

	"contact-api/internal/domain"
)

// Notifier defines the interface for submission notifications
type Notifier interface {
	// Notify sends the admin notification and the auto-reply for a stored
	// submission. It never fails; each channel reports its own outcome.
	Notify(ctx context.Context, submission *domain.Submission) domain.NotifyResult
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// RateLimiter defines the interface for per-client request limiting
type RateLimiter interface {
	// Allow counts one request from ipAddress and reports whether it fits the
	// current window
	Allow(ctx context.Context, ipAddress string) (*domain.RateLimitInfo, error)
}

// StatsCache defines the interface for caching the dashboard snapshot
type StatsCache interface {
	GetStats(ctx context.Context) (*domain.ContactStats, bool)
	SetStats(ctx context.Context, stats *domain.ContactStats)
	InvalidateStats(ctx context.Context)
	HealthCheck(ctx context.Context) error
}

// SubmissionService defines the interface for contact submission operations
type SubmissionService interface {
	// Submit validates, sanitizes and stores a form submission, then notifies
	Submit(ctx context.Context, req domain.SubmissionRequest, meta domain.RequestMeta) (*domain.Submission, error)

	// Get retrieves one submission by reference
	Get(ctx context.Context, reference string) (*domain.Submission, error)

	// UpdateStatus changes the workflow status of a submission
	UpdateStatus(ctx context.Context, reference, status string) (*domain.Submission, error)

	// List returns one page of submissions, newest first
	List(ctx context.Context, page, limit int) (*domain.SubmissionPage, error)

	// Stats returns the aggregate dashboard snapshot
	Stats(ctx context.Context) (*domain.ContactStats, error)

	// Export renders every submission as an XLSX workbook
	Export(ctx context.Context) ([]byte, error)

	// Health reports storage and cache connectivity
	Health(ctx context.Context) domain.HealthStatus
}
