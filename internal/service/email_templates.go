package service

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"contact-api/internal/domain"
	"contact-api/pkg/utils"
)

// Submission text is escaped before it is stored, so the templates use
// text/template to avoid escaping it a second time.
var (
	adminNotificationTmpl = template.Must(template.New("admin").Parse(adminNotificationHTML))
	autoReplyTmpl         = template.Must(template.New("autoReply").Parse(autoReplyHTML))
)

const emailDateLayout = "January 2, 2006 at 3:04 PM MST"

type emailData struct {
	FullName     string
	Email        string
	PhoneDisplay string
	PhoneDial    string
	Company      string
	Interests    string
	Message      string
	Reference    string
	SubmittedAt  string
	IPAddress    string
}

func newEmailData(s *domain.Submission) emailData {
	ip := s.IPAddress
	if ip == "" {
		ip = "Unknown"
	}
	return emailData{
		FullName:     s.FullName(),
		Email:        s.Email,
		PhoneDisplay: utils.FormatPhoneNumberForDisplay(s.CountryCode, s.Phone),
		PhoneDial:    utils.DialString(s.CountryCode, s.Phone),
		Company:      s.Company,
		Interests:    s.Interests,
		Message:      s.Message,
		Reference:    s.Reference,
		SubmittedAt:  formatEmailDate(s.CreatedAt),
		IPAddress:    ip,
	}
}

func renderTemplate(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// formatEmailDate renders t in UTC, e.g. "March 14, 2026 at 9:30 AM UTC"
func formatEmailDate(t time.Time) string {
	return t.UTC().Format(emailDateLayout)
}

const adminNotificationHTML = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2c3e50; border-bottom: 2px solid #667eea; padding-bottom: 10px;">
    New Contact Form Submission
  </h2>

  <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #667eea; margin-top: 0;">Contact Information</h3>
    <p><strong>Name:</strong> {{.FullName}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    <p><strong>Phone:</strong> <a href="tel:{{.PhoneDial}}">{{.PhoneDisplay}}</a></p>
    {{- if .Company}}
    <p><strong>Company:</strong> {{.Company}}</p>
    {{- end}}
    <p><strong>Reference:</strong> {{.Reference}}</p>
  </div>

  <div style="background: #fff; padding: 20px; border-left: 4px solid #667eea; margin: 20px 0;">
    <h3 style="color: #2c3e50; margin-top: 0;">Interests</h3>
    <p>{{.Interests}}</p>
  </div>

  <div style="background: #fff; padding: 20px; border-left: 4px solid #667eea; margin: 20px 0;">
    <h3 style="color: #2c3e50; margin-top: 0;">What they want to discuss</h3>
    <p style="line-height: 1.6; white-space: pre-wrap;">{{.Message}}</p>
  </div>

  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e0e0e0; color: #7f8c8d; font-size: 12px;">
    <p>This message was sent from your website contact form on {{.SubmittedAt}}</p>
    <p>IP Address: {{.IPAddress}}</p>
  </div>
</div>
`

const autoReplyHTML = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2c3e50; border-bottom: 2px solid #667eea; padding-bottom: 10px;">
    Thank You for Your Message
  </h2>

  <p>Dear {{.FullName}},</p>

  <p>Thank you for contacting us. We have received your message and will get back to you as soon as possible.</p>

  <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #667eea; margin-top: 0;">Your Message Details</h3>
    <p><strong>Interests:</strong> {{.Interests}}</p>
    <p><strong>Submitted on:</strong> {{.SubmittedAt}}</p>
    <p><strong>Reference Number:</strong> {{.Reference}}</p>
  </div>

  <p>Our team typically responds within 24-48 hours during business hours (Monday - Friday, 9:00 AM - 6:00 PM).</p>

  <p>If you have any urgent inquiries, please don't hesitate to call us directly.</p>

  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e0e0e0;">
    <p>Best regards,<br>
    <strong>Customer Support Team</strong></p>
  </div>

  <div style="margin-top: 20px; padding: 15px; background: #e8f4f8; border-radius: 5px; font-size: 12px; color: #5a6c7d;">
    <p><strong>Note:</strong> This is an automated response. Please do not reply to this email directly.</p>
  </div>
</div>
`
