package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"text/template"
	"time"

	"contact-api/internal/domain"
	"contact-api/pkg/logger"
	"contact-api/pkg/mail"
)

const (
	adminSubjectPrefix = "Contact Form: "
	autoReplySubject   = "Thank you for contacting us"

	defaultSendTimeout = 15 * time.Second
)

// MailSender delivers a single email
type MailSender interface {
	Send(msg mail.Message) error
}

// NotifierConfig configures the email notifier
type NotifierConfig struct {
	Enabled      bool
	AdminAddress string
	SendTimeout  time.Duration
}

// emailNotifier sends the admin notification and the auto-reply
type emailNotifier struct {
	sender MailSender
	cfg    NotifierConfig
	logger *logger.Logger
}

// NewEmailNotifier creates a notifier. With cfg.Enabled unset every channel is
// reported as skipped and sender may be nil.
func NewEmailNotifier(sender MailSender, cfg NotifierConfig, log *logger.Logger) Notifier {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if sender == nil {
		cfg.Enabled = false
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &emailNotifier{sender: sender, cfg: cfg, logger: log}
}

// Notify sends both emails concurrently and waits for each to settle. It
// never returns an error; failures are reported per channel.
func (n *emailNotifier) Notify(ctx context.Context, s *domain.Submission) domain.NotifyResult {
	if !n.cfg.Enabled {
		skipped := domain.ChannelResult{Outcome: domain.OutcomeSkipped, Reason: "email not configured"}
		return domain.NotifyResult{Admin: skipped, User: skipped}
	}

	data := newEmailData(s)
	var result domain.NotifyResult
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Admin = n.deliver(ctx, adminNotificationTmpl, data, func(body string) mail.Message {
			return mail.Message{
				To:       n.cfg.AdminAddress,
				ReplyTo:  data.Email,
				Subject:  adminSubjectPrefix + data.Interests,
				HTMLBody: body,
			}
		})
	}()
	go func() {
		defer wg.Done()
		result.User = n.deliver(ctx, autoReplyTmpl, data, func(body string) mail.Message {
			return mail.Message{
				To:       data.Email,
				Subject:  autoReplySubject,
				HTMLBody: body,
			}
		})
	}()
	wg.Wait()

	return result
}

// deliver renders one template and sends it within the configured timeout
func (n *emailNotifier) deliver(ctx context.Context, tmpl *template.Template, data emailData, build func(body string) mail.Message) domain.ChannelResult {
	body, err := renderTemplate(tmpl, data)
	if err != nil {
		return failed(err.Error())
	}
	msg := build(body)
	if msg.To == "" {
		return failed("no recipient address")
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("mail sender panicked: %v", r)
			}
		}()
		done <- n.sender.Send(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			n.logger.WithError(err).WithField("template", tmpl.Name()).Warn("Email send failed")
			return failed(err.Error())
		}
		return domain.ChannelResult{Outcome: domain.OutcomeDelivered}
	case <-ctx.Done():
		n.logger.WithField("template", tmpl.Name()).Warn("Email send abandoned")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failed("timeout")
		}
		return failed(ctx.Err().Error())
	}
}

func failed(reason string) domain.ChannelResult {
	return domain.ChannelResult{Outcome: domain.OutcomeFailed, Reason: reason}
}
