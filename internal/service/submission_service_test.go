package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"contact-api/internal/domain"
	"contact-api/internal/repository"
	apperrors "contact-api/pkg/errors"
	"contact-api/pkg/mail"
	"contact-api/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var referencePattern = regexp.MustCompile(`^CF-\d+-[0-9a-f]{8}$`)

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

// spyNotifier records every notified submission
type spyNotifier struct {
	mu     sync.Mutex
	calls  []domain.Submission
	result domain.NotifyResult
}

func (s *spyNotifier) Notify(_ context.Context, submission *domain.Submission) domain.NotifyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, *submission)
	return s.result
}

func newTestService(t *testing.T, notifier Notifier) (*submissionService, repository.SubmissionRepository) {
	t.Helper()
	repo := repository.NewMemorySubmissionRepository("+1", nil)
	svc := NewSubmissionService(repo, notifier, nil, nil, nil).(*submissionService)
	return svc, repo
}

func joLinRequest() domain.SubmissionRequest {
	return domain.SubmissionRequest{
		FirstName:   "Jo",
		LastName:    "Lin",
		Email:       "jo@example.com",
		Phone:       "5551234567",
		CountryCode: "+1",
		Interests:   "Consulting",
		Message:     "Hello there, I need help.",
	}
}

func TestSubmissionService_Submit_HappyPath(t *testing.T) {
	notifier := &spyNotifier{result: domain.NotifyResult{
		Admin: domain.ChannelResult{Outcome: domain.OutcomeSkipped},
		User:  domain.ChannelResult{Outcome: domain.OutcomeSkipped},
	}}
	svc, repo := newTestService(t, notifier)
	ctx := context.Background()

	submission, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "curl/8.0"})
	require.NoError(t, err)

	assert.Regexp(t, referencePattern, submission.Reference)
	assert.Equal(t, domain.StatusPending, submission.Status)
	assert.Equal(t, "Jo Lin", submission.FullName())
	assert.Equal(t, "203.0.113.7", submission.IPAddress)
	assert.Equal(t, "curl/8.0", submission.UserAgent)
	assert.False(t, submission.CreatedAt.IsZero())

	stored, err := repo.FindByReference(ctx, submission.Reference)
	require.NoError(t, err)
	assert.Equal(t, submission, stored)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, submission.Reference, notifier.calls[0].Reference)
}

func TestSubmissionService_Submit_ShortMessage(t *testing.T) {
	notifier := &spyNotifier{}
	svc, repo := newTestService(t, notifier)
	ctx := context.Background()

	req := joLinRequest()
	req.Message = "short"

	submission, err := svc.Submit(ctx, req, domain.RequestMeta{})
	assert.Nil(t, submission)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Validation failed", appErr.Message)
	assert.Equal(t, map[string]string{"message": "Message must be at least 10 characters long"}, appErr.Fields)

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, notifier.calls)
}

func TestSubmissionService_Submit_AllErrorsTogether(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})

	_, err := svc.Submit(context.Background(), domain.SubmissionRequest{Email: "nope", Message: "tiny"}, domain.RequestMeta{})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Len(t, appErr.Fields, 7)
	assert.Equal(t, "Please provide a valid email address", appErr.Fields["email"])
}

func TestSubmissionService_Submit_StoresSanitizedValues(t *testing.T) {
	svc, repo := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	req := joLinRequest()
	req.FirstName = "  <b>Jo</b> "
	req.Email = "  Jo.Lin+promo@GMAIL.com "
	req.Company = "Acme & Sons"
	req.Message = "I'd like a <quote>, please."

	submission, err := svc.Submit(ctx, req, domain.RequestMeta{})
	require.NoError(t, err)

	stored, err := repo.FindByReference(ctx, submission.Reference)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;Jo&lt;&#x2F;b&gt;", stored.FirstName)
	assert.Equal(t, "jolin@gmail.com", stored.Email)
	assert.Equal(t, "Acme &amp; Sons", stored.Company)
	assert.Equal(t, "I&#x27;d like a &lt;quote&gt;, please.", stored.Message)
}

func TestSubmissionService_Submit_FailingEmailKeepsRecord(t *testing.T) {
	sender := &recordingSender{send: func(mail.Message) error { return errors.New("connection refused") }}
	notifier := NewEmailNotifier(sender, enabledConfig(), nil)
	svc, repo := newTestService(t, notifier)
	ctx := context.Background()

	submission, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	stored, err := repo.FindByReference(ctx, submission.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Len(t, sender.sent, 2)
}

func TestSubmissionService_Submit_DuplicateReference(t *testing.T) {
	repo := repository.NewMemorySubmissionRepository("+1", func() (string, error) {
		return "CF-1700000000000-deadbeef", nil
	})
	svc := NewSubmissionService(repo, &spyNotifier{}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeDuplicate, appErr.Type)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Duplicate field value entered", appErr.Message)
}

func TestSubmissionService_Submit_PublishesEvent(t *testing.T) {
	repo := repository.NewMemorySubmissionRepository("+1", nil)
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, queue.RoutingKeySubmissionCreated, mock.AnythingOfType("domain.SubmissionCreatedEvent")).
		Return(errors.New("channel closed"))

	svc := NewSubmissionService(repo, &spyNotifier{}, nil, publisher, nil)

	// A failed publish does not fail the submission
	submission, err := svc.Submit(context.Background(), joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	publisher.AssertExpectations(t)
	event := publisher.Calls[0].Arguments.Get(2).(domain.SubmissionCreatedEvent)
	assert.Equal(t, submission.Reference, event.Reference)
	assert.Equal(t, "Jo Lin", event.FullName)
}

func TestSubmissionService_Submit_CanceledRequestStillNotifies(t *testing.T) {
	notifier := &spyNotifier{}
	svc, _ := newTestService(t, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	canceling := &cancelingNotifier{next: notifier, cancel: cancel}
	svc.notifier = canceling

	_, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)
	assert.NoError(t, canceling.seenErr)
}

// cancelingNotifier cancels the request context and records whether the
// context handed to the notifier was affected
type cancelingNotifier struct {
	next    Notifier
	cancel  context.CancelFunc
	seenErr error
}

func (c *cancelingNotifier) Notify(ctx context.Context, s *domain.Submission) domain.NotifyResult {
	c.cancel()
	c.seenErr = ctx.Err()
	return c.next.Notify(ctx, s)
}

func TestSubmissionService_UpdateStatus(t *testing.T) {
	svc, repo := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	submission, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, submission.Reference, "read")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, updated.Status)

	_, err = svc.UpdateStatus(ctx, submission.Reference, "bogus")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Invalid status. Must be one of: pending, read, responded, archived", appErr.Message)

	stored, err := repo.FindByReference(ctx, submission.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, stored.Status)

	_, err = svc.UpdateStatus(ctx, "CF-missing", "archived")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "Contact not found", appErr.Message)
}

func TestSubmissionService_Get(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	submission, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	found, err := svc.Get(ctx, submission.Reference)
	require.NoError(t, err)
	assert.Equal(t, submission.ID, found.ID)

	_, err = svc.Get(ctx, "CF-missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestSubmissionService_List_Pagination(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Contacts, 5)
	assert.Equal(t, domain.Pagination{CurrentPage: 2, TotalPages: 2, TotalItems: 15, ItemsPerPage: 10}, page.Pagination)
}

func TestSubmissionService_List_NormalizesParameters(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})

	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, 25, 1, 25},
		{2, 1000, 2, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d limit=%d", tt.page, tt.limit), func(t *testing.T) {
			page, err := svc.List(context.Background(), tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Pagination.CurrentPage)
			assert.Equal(t, tt.wantLimit, page.Pagination.ItemsPerPage)
			assert.Equal(t, 0, page.Pagination.TotalPages)
			assert.NotNil(t, page.Contacts)
		})
	}
}

func TestSubmissionService_Stats(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.ContactStats{}, stats)

	var last *domain.Submission
	for i := 0; i < 3; i++ {
		last, err = svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err = svc.UpdateStatus(ctx, last.Reference, "responded")
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalSubmissions)
	assert.Equal(t, int64(3), stats.TodaySubmissions)
	assert.Equal(t, int64(2), stats.PendingSubmissions)
	require.NotNil(t, stats.LastSubmission)
	assert.Equal(t, last.Reference, stats.LastSubmission.Reference)
	assert.Equal(t, "Jo Lin", stats.LastSubmission.Name)
}

func TestSubmissionService_Stats_UsesCache(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewCacheService(client, zap.NewNop())
	repo := repository.NewMemorySubmissionRepository("+1", nil)
	svc := NewSubmissionService(repo, &spyNotifier{}, cache, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSubmissions)

	cached, ok := cache.GetStats(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), cached.TotalSubmissions)

	// A new submission invalidates the snapshot
	_, err = svc.Submit(ctx, joLinRequest(), domain.RequestMeta{})
	require.NoError(t, err)
	_, ok = cache.GetStats(ctx)
	assert.False(t, ok)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSubmissions)
}

func TestSubmissionService_Export(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})
	ctx := context.Background()

	req := joLinRequest()
	req.Company = "Acme & Sons"
	submission, err := svc.Submit(ctx, req, domain.RequestMeta{IPAddress: "203.0.113.7"})
	require.NoError(t, err)

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, submission.Reference, rows[1][0])
	assert.Equal(t, "pending", rows[1][2])
	assert.Equal(t, "Acme & Sons", rows[1][8])
	assert.Equal(t, "203.0.113.7", rows[1][11])
}

func TestSubmissionService_Health(t *testing.T) {
	svc, _ := newTestService(t, &spyNotifier{})

	status := svc.Health(context.Background())

	assert.True(t, status.DatabaseConnected)
	assert.Equal(t, domain.CacheDisabled, status.Cache)
}
