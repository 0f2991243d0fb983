package service

import (
	"strings"
	"unicode/utf8"

	"contact-api/internal/domain"
	"contact-api/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// Field limits, counted in code points on the trimmed value
const (
	maxNameLength      = 50
	maxInterestsLength = 200
	minMessageLength   = 10
	maxMessageLength   = 1000
)

// validate is safe for concurrent use and caches struct metadata
var validate = validator.New()

// ValidateSubmission checks a raw form payload and returns one message per
// failing field. An empty map means the payload is acceptable.
func ValidateSubmission(req domain.SubmissionRequest) domain.FieldErrors {
	errs := domain.FieldErrors{}

	checkName(errs, "firstName", "First name", req.FirstName)
	checkName(errs, "lastName", "Last name", req.LastName)

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case validate.Var(email, "required,email") != nil:
		errs["email"] = "Please provide a valid email address"
	}

	phone := strings.TrimSpace(req.Phone)
	switch {
	case phone == "":
		errs["phone"] = "Phone number is required"
	case !utils.IsValidPhoneNumber(phone):
		errs["phone"] = "Please provide a valid phone number"
	}

	if strings.TrimSpace(req.CountryCode) == "" {
		errs["countryCode"] = "Country code is required"
	}

	interests := strings.TrimSpace(req.Interests)
	switch {
	case interests == "":
		errs["interests"] = "Interests are required"
	case utf8.RuneCountInString(interests) > maxInterestsLength:
		errs["interests"] = "Interests must be less than 200 characters"
	}

	message := strings.TrimSpace(req.Message)
	switch n := utf8.RuneCountInString(message); {
	case n == 0:
		errs["message"] = "Message is required"
	case n < minMessageLength:
		errs["message"] = "Message must be at least 10 characters long"
	case n > maxMessageLength:
		errs["message"] = "Message must be less than 1000 characters"
	}

	return errs
}

func checkName(errs domain.FieldErrors, field, label, value string) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		errs[field] = label + " is required"
	case utf8.RuneCountInString(value) > maxNameLength:
		errs[field] = label + " must be less than 50 characters"
	}
}
