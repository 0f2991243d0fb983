package repository

import (
	"context"
	"math"
	"time"

	"contact-api/internal/domain"
)

// SubmissionRepository defines the interface for contact submission storage
type SubmissionRepository interface {
	// Create stores a new submission. It assigns the storage ID, the reference
	// when empty, the timestamps and default status/country code.
	Create(ctx context.Context, submission *domain.Submission) error

	// FindByReference retrieves a submission by its public reference
	FindByReference(ctx context.Context, reference string) (*domain.Submission, error)

	// UpdateStatus changes the status of a submission and returns the updated record
	UpdateStatus(ctx context.Context, reference string, status domain.SubmissionStatus) (*domain.Submission, error)

	// List returns one page of submissions ordered by creation time, newest first,
	// together with the total number of submissions
	List(ctx context.Context, page, pageSize int) ([]*domain.Submission, int64, error)

	// CountAll returns the total number of submissions
	CountAll(ctx context.Context) (int64, error)

	// CountSince returns the number of submissions created at or after since
	CountSince(ctx context.Context, since time.Time) (int64, error)

	// CountByStatus returns the number of submissions in the given status
	CountByStatus(ctx context.Context, status domain.SubmissionStatus) (int64, error)

	// MostRecent returns the newest submission, or nil when there is none
	MostRecent(ctx context.Context) (*domain.Submission, error)

	// Ping checks storage connectivity
	Ping(ctx context.Context) error
}

// ReferenceFunc produces a new public reference for a submission
type ReferenceFunc func() (string, error)

// pageOffset converts a 1-based page into a row offset. Pages past the
// addressable range saturate at math.MaxInt so they read as empty.
func pageOffset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
