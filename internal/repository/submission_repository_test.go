package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"contact-api/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var submissionRowColumns = []string{
	"id", "reference", "first_name", "last_name", "email", "phone", "country_code", "company",
	"interests", "message", "status", "ip_address", "user_agent", "created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *submissionRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &submissionRepository{
		db:                 db,
		defaultCountryCode: "+1",
		newReference:       func() (string, error) { return "CF-1700000000000-0a1b2c3d", nil },
		now:                func() time.Time { return fixedNow },
	}

	return db, mock, repo
}

func addSubmissionRow(rows *sqlmock.Rows, reference, status string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		"7f9c24e5-8d2a-4b7e-9a43-1c2d3e4f5a6b", reference, "Jo", "Lin", "jo@example.com", "5551234567", "+1", "",
		"Consulting", "Hello there, I need help.", status, "203.0.113.7", "curl/8.0", createdAt, createdAt,
	)
}

func newTestSubmission() *domain.Submission {
	return &domain.Submission{
		FirstName:   "Jo",
		LastName:    "Lin",
		Email:       "jo@example.com",
		Phone:       "5551234567",
		CountryCode: "+1",
		Interests:   "Consulting",
		Message:     "Hello there, I need help.",
		IPAddress:   "203.0.113.7",
		UserAgent:   "curl/8.0",
	}
}

func TestSubmissionRepository_Create_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	s := newTestSubmission()

	mock.ExpectExec(`INSERT INTO contact_submissions`).
		WithArgs(
			sqlmock.AnyArg(), "CF-1700000000000-0a1b2c3d", "Jo", "Lin", "jo@example.com", "5551234567", "+1", "",
			"Consulting", "Hello there, I need help.", "pending", "203.0.113.7", "curl/8.0", fixedNow, fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), s)

	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "CF-1700000000000-0a1b2c3d", s.Reference)
	assert.Equal(t, domain.StatusPending, s.Status)
	assert.Equal(t, fixedNow, s.CreatedAt)
	assert.Equal(t, fixedNow, s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Create_DefaultsCountryCode(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	s := newTestSubmission()
	s.CountryCode = ""
	s.Reference = "CF-given"

	mock.ExpectExec(`INSERT INTO contact_submissions`).
		WithArgs(
			sqlmock.AnyArg(), "CF-given", "Jo", "Lin", "jo@example.com", "5551234567", "+1", "",
			"Consulting", "Hello there, I need help.", "pending", "203.0.113.7", "curl/8.0", fixedNow, fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, "+1", s.CountryCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Create_ConstraintViolations(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantIs    error
		wantField string
	}{
		{
			name:   "duplicate reference",
			pgErr:  &pgconn.PgError{Code: "23505", ConstraintName: "contact_submissions_reference_key"},
			wantIs: ErrDuplicateReference,
		},
		{
			name:      "message check",
			pgErr:     &pgconn.PgError{Code: "23514", ConstraintName: "contact_submissions_message_check"},
			wantField: "message",
		},
		{
			name:      "not null",
			pgErr:     &pgconn.PgError{Code: "23502", ColumnName: "email"},
			wantField: "email",
		},
		{
			name:      "too long",
			pgErr:     &pgconn.PgError{Code: "22001", ColumnName: "interests"},
			wantField: "interests",
		},
		{
			name:   "status check",
			pgErr:  &pgconn.PgError{Code: "23514", ConstraintName: "contact_submissions_status_check"},
			wantIs: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, repo := setupMockDB(t)
			defer db.Close()

			mock.ExpectExec(`INSERT INTO contact_submissions`).WillReturnError(tt.pgErr)

			err := repo.Create(context.Background(), newTestSubmission())
			require.Error(t, err)

			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			} else {
				var ce *ConstraintError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.wantField, ce.Field)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubmissionRepository_Create_ReferenceFailure(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	repo.newReference = func() (string, error) { return "", errors.New("entropy exhausted") }

	err := repo.Create(context.Background(), newTestSubmission())

	assert.ErrorContains(t, err, "failed to generate reference")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_FindByReference(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := addSubmissionRow(sqlmock.NewRows(submissionRowColumns), "CF-1", "read", fixedNow)
	mock.ExpectQuery(`SELECT .+ FROM contact_submissions WHERE reference = \$1`).
		WithArgs("CF-1").
		WillReturnRows(rows)

	s, err := repo.FindByReference(context.Background(), "CF-1")

	require.NoError(t, err)
	assert.Equal(t, "CF-1", s.Reference)
	assert.Equal(t, domain.StatusRead, s.Status)
	assert.Equal(t, "Jo Lin", s.FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_FindByReference_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM contact_submissions WHERE reference = \$1`).
		WithArgs("CF-missing").
		WillReturnRows(sqlmock.NewRows(submissionRowColumns))

	s, err := repo.FindByReference(context.Background(), "CF-missing")

	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := addSubmissionRow(sqlmock.NewRows(submissionRowColumns), "CF-1", "responded", fixedNow)
	mock.ExpectQuery(`UPDATE contact_submissions\s+SET status = \$1, updated_at = \$2\s+WHERE reference = \$3`).
		WithArgs("responded", fixedNow, "CF-1").
		WillReturnRows(rows)

	s, err := repo.UpdateStatus(context.Background(), "CF-1", domain.StatusResponded)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusResponded, s.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus_InvalidSkipsStorage(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	s, err := repo.UpdateStatus(context.Background(), "CF-1", domain.SubmissionStatus("bogus"))

	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE contact_submissions`).
		WithArgs("archived", fixedNow, "CF-missing").
		WillReturnRows(sqlmock.NewRows(submissionRowColumns))

	_, err := repo.UpdateStatus(context.Background(), "CF-missing", domain.StatusArchived)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_List(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contact_submissions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	rows := sqlmock.NewRows(submissionRowColumns)
	for i := 0; i < 5; i++ {
		addSubmissionRow(rows, "CF-"+string(rune('a'+i)), "pending", fixedNow.Add(-time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 10).
		WillReturnRows(rows)

	items, total, err := repo.List(context.Background(), 2, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, items, 5)
	assert.Equal(t, "CF-a", items[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Counts(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	since := fixedNow.Truncate(24 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contact_submissions WHERE created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contact_submissions WHERE status = \$1`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	today, err := repo.CountSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), today)

	pending, err := repo.CountByStatus(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_MostRecent_Empty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(submissionRowColumns))

	s, err := repo.MostRecent(context.Background())

	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_CountAll_Error(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).WillReturnError(errors.New("connection reset"))

	_, err := repo.CountAll(context.Background())

	assert.ErrorContains(t, err, "failed to count submissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_ListHugePage(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contact_submissions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(10, math.MaxInt).
		WillReturnRows(sqlmock.NewRows(submissionRowColumns))

	items, total, err := repo.List(context.Background(), 922337203685477582, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		expected int
	}{
		{name: "first page", page: 1, pageSize: 10, expected: 0},
		{name: "second page", page: 2, pageSize: 10, expected: 10},
		{name: "zero page", page: 0, pageSize: 10, expected: 0},
		{name: "negative page", page: -3, pageSize: 10, expected: 0},
		{name: "zero page size", page: 4, pageSize: 0, expected: 0},
		{name: "overflowing page saturates", page: 922337203685477582, pageSize: 10, expected: math.MaxInt},
		{name: "max page saturates", page: math.MaxInt, pageSize: 100, expected: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageOffset(tt.page, tt.pageSize))
		})
	}
}
