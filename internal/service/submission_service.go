package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"contact-api/internal/domain"
	"contact-api/internal/repository"
	apperrors "contact-api/pkg/errors"
	"contact-api/pkg/export"
	"contact-api/pkg/logger"
	"contact-api/pkg/metrics"
	"contact-api/pkg/queue"

	"golang.org/x/sync/errgroup"
)

// Pagination limits for the admin listing
const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	exportBatchSize = 500
	publishTimeout  = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

const (
	msgValidationFailed = "Validation failed"
	msgDuplicateField   = "Duplicate field value entered"
	msgContactNotFound  = "Contact not found"
	msgInternalError    = "Internal Server Error"
)

// submissionService runs the submission pipeline and the admin reads
type submissionService struct {
	repo      repository.SubmissionRepository
	notifier  Notifier
	cache     StatsCache
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewSubmissionService creates a submission service. cache and publisher are
// optional.
func NewSubmissionService(repo repository.SubmissionRepository, notifier Notifier, cache StatsCache, publisher EventPublisher, log *logger.Logger) SubmissionService {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &submissionService{
		repo:      repo,
		notifier:  notifier,
		cache:     cache,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates the raw payload, sanitizes it, stores it and then sends
// the notification emails. Email outcomes never change the result.
func (s *submissionService) Submit(ctx context.Context, req domain.SubmissionRequest, meta domain.RequestMeta) (*domain.Submission, error) {
	if fieldErrs := ValidateSubmission(req); len(fieldErrs) > 0 {
		metrics.RecordSubmission("invalid")
		s.logger.WithField("fields", fieldErrs).Debug("Contact submission failed validation")
		return nil, apperrors.NewValidationError(msgValidationFailed, fieldErrs)
	}

	clean := SanitizeSubmission(req)
	submission := &domain.Submission{
		FirstName:   clean.FirstName,
		LastName:    clean.LastName,
		Email:       clean.Email,
		Phone:       clean.Phone,
		CountryCode: clean.CountryCode,
		Company:     clean.Company,
		Interests:   clean.Interests,
		Message:     clean.Message,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		metrics.RecordSubmission("failed")
		return nil, s.mapCreateError(err)
	}
	metrics.RecordSubmission("accepted")

	s.logger.WithFields(map[string]interface{}{
		"name":      submission.FullName(),
		"email":     submission.Email,
		"phone":     submission.CountryCode + " " + submission.Phone,
		"interests": submission.Interests,
		"reference": submission.Reference,
	}).Info("Contact form submission saved to database")

	// The client may disconnect while emails are in flight; the record is
	// already stored so the follow-up work keeps running.
	detached := context.WithoutCancel(ctx)

	if s.cache != nil {
		s.cache.InvalidateStats(detached)
	}

	result := s.notifier.Notify(detached, submission)
	s.recordNotification(submission.Reference, result)

	s.publishCreated(detached, submission)

	return submission, nil
}

// Get retrieves a submission by reference
func (s *submissionService) Get(ctx context.Context, reference string) (*domain.Submission, error) {
	submission, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(msgContactNotFound)
		}
		s.logger.WithError(err).WithField("reference", reference).Error("Failed to get contact")
		return nil, apperrors.NewInternalError(msgInternalError, err)
	}
	return submission, nil
}

// UpdateStatus moves a submission to a new status. Any status may follow any other.
func (s *submissionService) UpdateStatus(ctx context.Context, reference, status string) (*domain.Submission, error) {
	newStatus := domain.SubmissionStatus(strings.TrimSpace(status))
	if !newStatus.IsValid() {
		return nil, invalidStatusError()
	}

	submission, err := s.repo.UpdateStatus(ctx, reference, newStatus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFoundError(msgContactNotFound)
		case errors.Is(err, repository.ErrInvalidStatus):
			return nil, invalidStatusError()
		}
		s.logger.WithError(err).WithField("reference", reference).Error("Failed to update contact status")
		return nil, apperrors.NewInternalError(msgInternalError, err)
	}

	if s.cache != nil {
		s.cache.InvalidateStats(ctx)
	}

	s.logger.WithFields(map[string]interface{}{
		"reference": reference,
		"status":    newStatus,
	}).Info("Contact status updated")

	return submission, nil
}

// List returns one page of submissions. page < 1 becomes 1; limit < 1 becomes
// DefaultPageSize and is capped at MaxPageSize.
func (s *submissionService) List(ctx context.Context, page, limit int) (*domain.SubmissionPage, error) {
	page, limit = normalizePage(page, limit)

	contacts, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list contacts")
		return nil, apperrors.NewInternalError(msgInternalError, err)
	}

	return &domain.SubmissionPage{
		Contacts: contacts,
		Pagination: domain.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages(total, limit),
			TotalItems:   total,
			ItemsPerPage: limit,
		},
	}, nil
}

// Stats builds the dashboard snapshot. The four reads run concurrently and are
// not taken from a single transaction, so the numbers are advisory.
func (s *submissionService) Stats(ctx context.Context) (*domain.ContactStats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetStats(ctx); ok {
			return cached, nil
		}
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := &domain.ContactStats{}
	var latest *domain.Submission

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountAll(gctx)
		stats.TotalSubmissions = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountSince(gctx, startOfDay)
		stats.TodaySubmissions = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountByStatus(gctx, domain.StatusPending)
		stats.PendingSubmissions = n
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.repo.MostRecent(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("Failed to get contact stats")
		return nil, apperrors.NewInternalError(msgInternalError, err)
	}

	if latest != nil {
		stats.LastSubmission = &domain.SubmissionSummary{
			Name:        latest.FullName(),
			Email:       latest.Email,
			SubmittedAt: latest.CreatedAt,
			Reference:   latest.Reference,
		}
	}

	if s.cache != nil {
		s.cache.SetStats(ctx, stats)
	}

	return stats, nil
}

var exportHeaders = []string{
	"Reference", "Submitted At", "Status", "First Name", "Last Name", "Email",
	"Country Code", "Phone", "Company", "Interests", "Message", "IP Address",
}

var exportWidths = []float64{30, 22, 12, 18, 18, 30, 12, 18, 24, 30, 60, 18}

// Export renders every submission, newest first, as an XLSX workbook. Stored
// text is unescaped so the sheet shows what the visitor typed.
func (s *submissionService) Export(ctx context.Context) ([]byte, error) {
	var rows [][]any
	for page := 1; ; page++ {
		batch, total, err := s.repo.List(ctx, page, exportBatchSize)
		if err != nil {
			s.logger.WithError(err).Error("Failed to read contacts for export")
			return nil, apperrors.NewInternalError(msgInternalError, err)
		}
		for _, c := range batch {
			rows = append(rows, []any{
				c.Reference,
				c.CreatedAt.UTC().Format(time.RFC3339),
				string(c.Status),
				html.UnescapeString(c.FirstName),
				html.UnescapeString(c.LastName),
				c.Email,
				c.CountryCode,
				c.Phone,
				html.UnescapeString(c.Company),
				html.UnescapeString(c.Interests),
				html.UnescapeString(c.Message),
				c.IPAddress,
			})
		}
		if len(batch) < exportBatchSize || int64(page*exportBatchSize) >= total {
			break
		}
	}

	data, err := export.WriteXLSX(export.Sheet{
		Name:    "Contacts",
		Headers: exportHeaders,
		Widths:  exportWidths,
		Rows:    rows,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to build contacts workbook")
		return nil, apperrors.NewInternalError(msgInternalError, err)
	}

	s.logger.WithField("rows", len(rows)).Info("Contacts exported")
	return data, nil
}

// Health checks storage and cache connectivity
func (s *submissionService) Health(ctx context.Context) domain.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	status := domain.HealthStatus{Cache: domain.CacheDisabled}

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("Database health check failed")
	} else {
		status.DatabaseConnected = true
	}

	if s.cache != nil {
		if err := s.cache.HealthCheck(ctx); err != nil {
			status.Cache = domain.CacheDisconnected
		} else {
			status.Cache = domain.CacheConnected
		}
	}

	return status
}

// mapCreateError turns a storage failure into the error returned to the client
func (s *submissionService) mapCreateError(err error) error {
	var constraintErr *repository.ConstraintError
	switch {
	case errors.Is(err, repository.ErrDuplicateReference):
		s.logger.WithError(err).Warn("Duplicate contact reference")
		return apperrors.NewDuplicateError(msgDuplicateField, err)
	case errors.As(err, &constraintErr):
		if constraintErr.Field == "" {
			return apperrors.NewBadRequestError(constraintErr.Message, err)
		}
		return apperrors.NewValidationError(msgValidationFailed, map[string]string{
			constraintErr.Field: constraintErr.Message,
		})
	}

	s.logger.WithError(err).Error("Failed to save contact submission")
	return apperrors.NewInternalError(msgInternalError, err)
}

func (s *submissionService) recordNotification(reference string, result domain.NotifyResult) {
	metrics.RecordEmail("admin", string(result.Admin.Outcome))
	metrics.RecordEmail("user", string(result.User.Outcome))

	log := s.logger.WithFields(map[string]interface{}{
		"reference":    reference,
		"admin_email":  result.Admin.Outcome,
		"auto_reply":   result.User.Outcome,
		"admin_reason": result.Admin.Reason,
		"user_reason":  result.User.Reason,
	})
	if result.Admin.Outcome == domain.OutcomeFailed || result.User.Outcome == domain.OutcomeFailed {
		log.Warn("Contact notification emails partially failed")
		return
	}
	log.Info("Contact notification emails processed")
}

func (s *submissionService) publishCreated(ctx context.Context, submission *domain.Submission) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event := domain.SubmissionCreatedEvent{
		Reference: submission.Reference,
		FullName:  submission.FullName(),
		Email:     submission.Email,
		Interests: submission.Interests,
		CreatedAt: submission.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, queue.RoutingKeySubmissionCreated, event); err != nil {
		metrics.RecordIntegrationError("rabbitmq")
		s.logger.WithError(err).WithField("reference", submission.Reference).Warn("Failed to publish submission event")
	}
}

func invalidStatusError() error {
	return apperrors.NewInvalidStatusError(fmt.Sprintf("Invalid status. Must be one of: %s", domain.StatusList()))
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
