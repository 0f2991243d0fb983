package service

import (
	"strings"

	"contact-api/internal/domain"
)

// htmlEscaper covers the characters that can break out of HTML text or
// attribute context, including the slash and backtick.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// EscapeText HTML-escapes s.
func EscapeText(s string) string {
	return htmlEscaper.Replace(s)
}

// NormalizeEmail trims and lowercases an address. Gmail addresses are
// canonicalized: dots and "+tag" suffixes are dropped from the local part and
// googlemail.com becomes gmail.com.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return email
	}
	local, host := email[:at], email[at+1:]

	if host != "gmail.com" && host != "googlemail.com" {
		return email
	}
	if plus := strings.IndexByte(local, '+'); plus >= 0 {
		local = local[:plus]
	}
	local = strings.ReplaceAll(local, ".", "")
	if local == "" {
		return email
	}
	return local + "@gmail.com"
}

// SanitizeSubmission trims every field, escapes free text and normalizes the
// email address. Empty fields are left as they are.
func SanitizeSubmission(req domain.SubmissionRequest) domain.SubmissionRequest {
	escape := func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return s
		}
		return EscapeText(s)
	}

	out := domain.SubmissionRequest{
		FirstName:   escape(req.FirstName),
		LastName:    escape(req.LastName),
		Phone:       strings.TrimSpace(req.Phone),
		CountryCode: strings.TrimSpace(req.CountryCode),
		Company:     escape(req.Company),
		Interests:   escape(req.Interests),
		Message:     escape(req.Message),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		out.Email = NormalizeEmail(email)
	}
	return out
}
