package utils

import (
	"errors"
	"regexp"
	"strings"
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15 // E.164 upper bound
)

var (
	// Only digits, an optional leading plus and common separators
	phoneCharsRegex = regexp.MustCompile(`^\+?[0-9\s\-.()]+$`)
	// Regex to remove non-digit characters
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)
)

// NormalizePhoneNumber strips separators from a phone number, keeping a
// leading plus sign. International and national formats are both accepted;
// only the overall shape and digit count are checked, not carrier ranges.
func NormalizePhoneNumber(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", errors.New("phone number cannot be empty")
	}

	if !phoneCharsRegex.MatchString(phone) {
		return "", errors.New("phone number contains invalid characters")
	}

	digits := digitsOnlyRegex.ReplaceAllString(phone, "")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", errors.New("phone number must have between 7 and 15 digits")
	}

	if strings.HasPrefix(phone, "+") {
		return "+" + digits, nil
	}
	return digits, nil
}

// IsValidPhoneNumber reports whether phone looks like a dialable number.
func IsValidPhoneNumber(phone string) bool {
	_, err := NormalizePhoneNumber(phone)
	return err == nil
}

// DialString builds a tel: friendly number from a country code and a phone
// number. A phone that already carries its own "+" prefix wins.
// Example: ("+1", "(555) 123-4567") -> "+15551234567"
func DialString(countryCode, phone string) string {
	normalized, err := NormalizePhoneNumber(phone)
	if err != nil {
		return strings.TrimSpace(countryCode) + strings.TrimSpace(phone)
	}
	if strings.HasPrefix(normalized, "+") {
		return normalized
	}

	code := digitsOnlyRegex.ReplaceAllString(countryCode, "")
	if code == "" {
		return normalized
	}
	return "+" + code + normalized
}

// FormatPhoneNumberForDisplay joins country code and number the way they are
// shown in notification emails: "+1 555-123-4567".
func FormatPhoneNumberForDisplay(countryCode, phone string) string {
	countryCode = strings.TrimSpace(countryCode)
	phone = strings.TrimSpace(phone)
	if countryCode == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return countryCode + " " + phone
}
