package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"contact-api/internal/domain"
	"contact-api/pkg/utils"
)

// memorySubmissionRepository keeps submissions in process memory. It is used
// when no database is configured and in tests.
type memorySubmissionRepository struct {
	mu                 sync.RWMutex
	byReference        map[string]*domain.Submission
	defaultCountryCode string
	newReference       ReferenceFunc
	now                func() time.Time
}

// NewMemorySubmissionRepository creates an in-memory submission repository
func NewMemorySubmissionRepository(defaultCountryCode string, newReference ReferenceFunc) SubmissionRepository {
	if newReference == nil {
		newReference = func() (string, error) { return utils.GenerateReference(utils.DefaultReferencePrefix) }
	}
	return &memorySubmissionRepository{
		byReference:        make(map[string]*domain.Submission),
		defaultCountryCode: defaultCountryCode,
		newReference:       newReference,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

func (r *memorySubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareForInsert(s, r.defaultCountryCode, r.newReference, r.now()); err != nil {
		return err
	}
	if err := checkConstraints(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byReference[s.Reference]; exists {
		return ErrDuplicateReference
	}
	stored := *s
	r.byReference[s.Reference] = &stored
	return nil
}

func (r *memorySubmissionRepository) FindByReference(ctx context.Context, reference string) (*domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byReference[reference]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *memorySubmissionRepository) UpdateStatus(ctx context.Context, reference string, status domain.SubmissionStatus) (*domain.Submission, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byReference[reference]
	if !ok {
		return nil, ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = r.now()
	out := *s
	return &out, nil
}

func (r *memorySubmissionRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Submission, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	all := r.sortedSnapshot()
	total := int64(len(all))

	offset := pageOffset(page, pageSize)
	if offset >= len(all) {
		return []*domain.Submission{}, total, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memorySubmissionRepository) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byReference)), nil
}

func (r *memorySubmissionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, s := range r.byReference {
		if !s.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memorySubmissionRepository) CountByStatus(ctx context.Context, status domain.SubmissionStatus) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, s := range r.byReference {
		if s.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memorySubmissionRepository) MostRecent(ctx context.Context) (*domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := r.sortedSnapshot()
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *memorySubmissionRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// sortedSnapshot copies every submission, newest first
func (r *memorySubmissionRepository) sortedSnapshot() []*domain.Submission {
	r.mu.RLock()
	all := make([]*domain.Submission, 0, len(r.byReference))
	for _, s := range r.byReference {
		c := *s
		all = append(all, &c)
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Reference > all[j].Reference
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

// checkConstraints mirrors the table CHECK constraints
func checkConstraints(s *domain.Submission) error {
	required := []struct {
		field, value string
	}{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"phone", s.Phone},
		{"countryCode", s.CountryCode},
		{"interests", s.Interests},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConstraintError{Field: r.field, Message: "This field is required"}
		}
	}
	if strings.Index(s.Email, "@") < 1 {
		return &ConstraintError{Field: "email", Message: "Please provide a valid email address"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Message)) < 10 {
		return &ConstraintError{Field: "message", Message: "Message must be at least 10 characters long"}
	}
	return nil
}
