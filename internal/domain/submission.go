package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// SubmissionStatus is the admin-facing workflow state of a submission.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusRead      SubmissionStatus = "read"
	StatusResponded SubmissionStatus = "responded"
	StatusArchived  SubmissionStatus = "archived"
)

// ValidStatuses lists every accepted status in display order.
var ValidStatuses = []SubmissionStatus{StatusPending, StatusRead, StatusResponded, StatusArchived}

// IsValid reports whether s is one of the four known statuses.
func (s SubmissionStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusList renders the valid statuses as "pending, read, responded, archived".
func StatusList() string {
	names := make([]string, len(ValidStatuses))
	for i, s := range ValidStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Submission represents one stored contact form entry
type Submission struct {
	ID          string           `json:"id"`
	Reference   string           `json:"reference"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	CountryCode string           `json:"countryCode"`
	Company     string           `json:"company"`
	Interests   string           `json:"interests"`
	Message     string           `json:"message"`
	Status      SubmissionStatus `json:"status"`
	IPAddress   string           `json:"ipAddress,omitempty"`
	UserAgent   string           `json:"userAgent,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// FullName joins first and last name. It is derived, never stored.
func (s *Submission) FullName() string {
	return s.FirstName + " " + s.LastName
}

// MarshalJSON adds the derived fullName to the stored fields.
func (s Submission) MarshalJSON() ([]byte, error) {
	type submissionAlias Submission
	return json.Marshal(struct {
		submissionAlias
		FullName string `json:"fullName"`
	}{
		submissionAlias: submissionAlias(s),
		FullName:        s.FullName(),
	})
}

// SubmissionRequest is the raw form payload sent by the website
type SubmissionRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	Company     string `json:"company"`
	Interests   string `json:"interests"`
	Message     string `json:"message"`
}

// RequestMeta carries server-side request details attached to a submission
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// FieldErrors maps a request field name to its validation message
type FieldErrors map[string]string

// SubmitResponseData is the payload returned to the form after a successful submit
type SubmitResponseData struct {
	SubmittedAt string `json:"submittedAt"`
	Reference   string `json:"reference"`
}

// StatusUpdateRequest is the body of PUT /api/contact/{reference}/status
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ContactStats is the aggregate dashboard snapshot
type ContactStats struct {
	TotalSubmissions   int64              `json:"totalSubmissions"`
	TodaySubmissions   int64              `json:"todaySubmissions"`
	PendingSubmissions int64              `json:"pendingSubmissions"`
	LastSubmission     *SubmissionSummary `json:"lastSubmission"`
}

// SubmissionSummary is the short form of the most recent submission
type SubmissionSummary struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submittedAt"`
	Reference   string    `json:"reference"`
}

// Pagination describes one page of a listing
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// SubmissionPage is one page of submissions, newest first
type SubmissionPage struct {
	Contacts   []*Submission `json:"contacts"`
	Pagination Pagination    `json:"pagination"`
}
