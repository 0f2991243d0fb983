package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contact-api/internal/domain"
	"contact-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// SubmissionSchema creates the contact_submissions table. The CHECK
// constraints repeat the request validation at the storage layer.
const SubmissionSchema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	id           UUID PRIMARY KEY,
	reference    VARCHAR(64)  NOT NULL,
	first_name   TEXT         NOT NULL,
	last_name    TEXT         NOT NULL,
	email        TEXT         NOT NULL,
	phone        VARCHAR(32)  NOT NULL,
	country_code VARCHAR(8)   NOT NULL DEFAULT '+1',
	company      TEXT         NOT NULL DEFAULT '',
	interests    TEXT         NOT NULL,
	message      TEXT         NOT NULL,
	status       VARCHAR(16)  NOT NULL DEFAULT 'pending',
	ip_address   TEXT         NOT NULL DEFAULT '',
	user_agent   TEXT         NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	CONSTRAINT contact_submissions_reference_key UNIQUE (reference),
	CONSTRAINT contact_submissions_first_name_check CHECK (char_length(btrim(first_name)) > 0),
	CONSTRAINT contact_submissions_last_name_check CHECK (char_length(btrim(last_name)) > 0),
	CONSTRAINT contact_submissions_email_check CHECK (position('@' in email) > 1),
	CONSTRAINT contact_submissions_phone_check CHECK (char_length(btrim(phone)) > 0),
	CONSTRAINT contact_submissions_country_code_check CHECK (char_length(btrim(country_code)) > 0),
	CONSTRAINT contact_submissions_interests_check CHECK (char_length(btrim(interests)) > 0),
	CONSTRAINT contact_submissions_message_check CHECK (char_length(btrim(message)) >= 10),
	CONSTRAINT contact_submissions_status_check CHECK (status IN ('pending', 'read', 'responded', 'archived'))
);

CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at ON contact_submissions (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_email ON contact_submissions (email);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_status ON contact_submissions (status);
`

const submissionColumns = `id, reference, first_name, last_name, email, phone, country_code, company,
	interests, message, status, ip_address, user_agent, created_at, updated_at`

// Postgres error codes
const (
	pgUniqueViolation   = "23505"
	pgCheckViolation    = "23514"
	pgNotNullViolation  = "23502"
	pgStringTooLong     = "22001"
	referenceConstraint = "contact_submissions_reference_key"
	statusConstraint    = "contact_submissions_status_check"
)

type constraintField struct {
	field   string
	message string
}

var checkConstraintFields = map[string]constraintField{
	"contact_submissions_first_name_check":   {"firstName", "First name is required"},
	"contact_submissions_last_name_check":    {"lastName", "Last name is required"},
	"contact_submissions_email_check":        {"email", "Please provide a valid email address"},
	"contact_submissions_phone_check":        {"phone", "Phone number is required"},
	"contact_submissions_country_code_check": {"countryCode", "Country code is required"},
	"contact_submissions_interests_check":    {"interests", "Interests are required"},
	"contact_submissions_message_check":      {"message", "Message must be at least 10 characters long"},
}

var columnFields = map[string]string{
	"first_name":   "firstName",
	"last_name":    "lastName",
	"email":        "email",
	"phone":        "phone",
	"country_code": "countryCode",
	"interests":    "interests",
	"message":      "message",
}

// submissionRepository handles contact submissions with PostgreSQL
type submissionRepository struct {
	db                 *sql.DB
	defaultCountryCode string
	newReference       ReferenceFunc
	now                func() time.Time
}

// NewSubmissionRepository creates a PostgreSQL-backed submission repository
func NewSubmissionRepository(db *sql.DB, defaultCountryCode string, newReference ReferenceFunc) SubmissionRepository {
	if newReference == nil {
		newReference = func() (string, error) { return utils.GenerateReference(utils.DefaultReferencePrefix) }
	}
	return &submissionRepository{
		db:                 db,
		defaultCountryCode: defaultCountryCode,
		newReference:       newReference,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new submission
func (r *submissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	if err := prepareForInsert(s, r.defaultCountryCode, r.newReference, r.now()); err != nil {
		return err
	}

	query := `
		INSERT INTO contact_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Reference,
		s.FirstName,
		s.LastName,
		s.Email,
		s.Phone,
		s.CountryCode,
		s.Company,
		s.Interests,
		s.Message,
		string(s.Status),
		s.IPAddress,
		s.UserAgent,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err)
	}

	return nil
}

// FindByReference retrieves a submission by reference
func (r *submissionRepository) FindByReference(ctx context.Context, reference string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions WHERE reference = $1`

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission by reference: %w", err)
	}

	return s, nil
}

// UpdateStatus changes the status of a submission
func (r *submissionRepository) UpdateStatus(ctx context.Context, reference string, status domain.SubmissionStatus) (*domain.Submission, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	query := `
		UPDATE contact_submissions
		SET status = $1, updated_at = $2
		WHERE reference = $3
		RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, string(status), r.now(), reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, translateWriteError(err)
	}

	return s, nil
}

// List retrieves one page of submissions, newest first
func (r *submissionRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Submission, int64, error) {
	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + submissionColumns + `
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*domain.Submission, 0, pageSize)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission row: %w", err)
		}
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading submission rows: %w", err)
	}

	return submissions, total, nil
}

// CountAll returns the total number of submissions
func (r *submissionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_submissions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// CountSince returns the number of submissions created at or after since
func (r *submissionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM contact_submissions WHERE created_at >= $1`
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

// CountByStatus returns the number of submissions in a status
func (r *submissionRepository) CountByStatus(ctx context.Context, status domain.SubmissionStatus) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM contact_submissions WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s submissions: %w", status, err)
	}
	return count, nil
}

// MostRecent returns the newest submission or nil
func (r *submissionRepository) MostRecent(ctx context.Context) (*domain.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT 1
	`

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No submissions yet, return nil without error
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most recent submission: %w", err)
	}

	return s, nil
}

// Ping checks the database connection
func (r *submissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	s := &domain.Submission{}
	var status string
	err := row.Scan(
		&s.ID,
		&s.Reference,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Phone,
		&s.CountryCode,
		&s.Company,
		&s.Interests,
		&s.Message,
		&status,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SubmissionStatus(status)
	return s, nil
}

// prepareForInsert fills the server-assigned fields of a new submission
func prepareForInsert(s *domain.Submission, defaultCountryCode string, newReference ReferenceFunc, now time.Time) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Reference == "" {
		ref, err := newReference()
		if err != nil {
			return fmt.Errorf("failed to generate reference: %w", err)
		}
		s.Reference = ref
	}
	if s.Status == "" {
		s.Status = domain.StatusPending
	}
	if !s.Status.IsValid() {
		return ErrInvalidStatus
	}
	if s.CountryCode == "" {
		s.CountryCode = defaultCountryCode
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// translateWriteError maps Postgres constraint violations onto repository errors
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("failed to write submission: %w", err)
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == referenceConstraint {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, pgErr.Detail)
		}
		return &ConstraintError{Message: "Duplicate field value entered", Err: err}
	case pgCheckViolation:
		if pgErr.ConstraintName == statusConstraint {
			return ErrInvalidStatus
		}
		if cf, ok := checkConstraintFields[pgErr.ConstraintName]; ok {
			return &ConstraintError{Field: cf.field, Message: cf.message, Err: err}
		}
		return &ConstraintError{Message: pgErr.Message, Err: err}
	case pgNotNullViolation:
		return &ConstraintError{Field: columnFields[pgErr.ColumnName], Message: "This field is required", Err: err}
	case pgStringTooLong:
		return &ConstraintError{Field: columnFields[pgErr.ColumnName], Message: "Value is too long", Err: err}
	}

	return fmt.Errorf("failed to write submission: %w", err)
}
