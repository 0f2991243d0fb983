package service

import (
	"strings"
	"testing"

	"contact-api/internal/domain"

	"github.com/stretchr/testify/assert"
)

func validRequest() domain.SubmissionRequest {
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

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.SubmissionRequest)
		want   domain.FieldErrors
	}{
		{
			name:   "valid payload",
			mutate: func(r *domain.SubmissionRequest) {},
			want:   domain.FieldErrors{},
		},
		{
			name:   "blank first name",
			mutate: func(r *domain.SubmissionRequest) { r.FirstName = "   " },
			want:   domain.FieldErrors{"firstName": "First name is required"},
		},
		{
			name:   "long last name",
			mutate: func(r *domain.SubmissionRequest) { r.LastName = strings.Repeat("x", 51) },
			want:   domain.FieldErrors{"lastName": "Last name must be less than 50 characters"},
		},
		{
			name:   "name at limit counts code points",
			mutate: func(r *domain.SubmissionRequest) { r.FirstName = strings.Repeat("é", 50) },
			want:   domain.FieldErrors{},
		},
		{
			name:   "invalid email",
			mutate: func(r *domain.SubmissionRequest) { r.Email = "not-an-email" },
			want:   domain.FieldErrors{"email": "Please provide a valid email address"},
		},
		{
			name:   "invalid phone",
			mutate: func(r *domain.SubmissionRequest) { r.Phone = "call me" },
			want:   domain.FieldErrors{"phone": "Please provide a valid phone number"},
		},
		{
			name:   "missing country code",
			mutate: func(r *domain.SubmissionRequest) { r.CountryCode = "" },
			want:   domain.FieldErrors{"countryCode": "Country code is required"},
		},
		{
			name:   "long interests",
			mutate: func(r *domain.SubmissionRequest) { r.Interests = strings.Repeat("i", 201) },
			want:   domain.FieldErrors{"interests": "Interests must be less than 200 characters"},
		},
		{
			name:   "short message",
			mutate: func(r *domain.SubmissionRequest) { r.Message = "short" },
			want:   domain.FieldErrors{"message": "Message must be at least 10 characters long"},
		},
		{
			name:   "message padded with spaces is still short",
			mutate: func(r *domain.SubmissionRequest) { r.Message = "   short      " },
			want:   domain.FieldErrors{"message": "Message must be at least 10 characters long"},
		},
		{
			name:   "long message",
			mutate: func(r *domain.SubmissionRequest) { r.Message = strings.Repeat("m", 1001) },
			want:   domain.FieldErrors{"message": "Message must be less than 1000 characters"},
		},
		{
			name:   "message at upper bound",
			mutate: func(r *domain.SubmissionRequest) { r.Message = strings.Repeat("m", 1000) },
			want:   domain.FieldErrors{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.Equal(t, tt.want, ValidateSubmission(req))
		})
	}
}

func TestValidateSubmission_ReportsEveryField(t *testing.T) {
	errs := ValidateSubmission(domain.SubmissionRequest{})

	assert.Equal(t, domain.FieldErrors{
		"firstName":   "First name is required",
		"lastName":    "Last name is required",
		"email":       "Email is required",
		"phone":       "Phone number is required",
		"countryCode": "Country code is required",
		"interests":   "Interests are required",
		"message":     "Message is required",
	}, errs)
}

func TestValidateSubmission_Deterministic(t *testing.T) {
	req := domain.SubmissionRequest{Email: "bad", Message: "tiny", Phone: "12"}

	first := ValidateSubmission(req)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ValidateSubmission(req))
	}
}
