package mail

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// DefaultTimeout bounds one SMTP session, from dial to QUIT
const DefaultTimeout = 15 * time.Second

const implicitTLSPort = 465

// Message is a single outbound email
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email over SMTP
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewSender creates an SMTP sender. Port 587 uses STARTTLS when offered, 465
// implicit TLS. Every session is cut off after timeout.
func NewSender(host string, port int, user, password, from string, timeout time.Duration) *Sender {
	if from == "" {
		from = user
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sender{
		host:     host,
		port:     port,
		username: user,
		password: password,
		from:     from,
		timeout:  timeout,
	}
}

// Send dials the SMTP server and delivers msg
func (s *Sender) Send(msg Message) error {
	client, err := s.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	send := gomail.SendFunc(func(from string, to []string, body io.WriterTo) error {
		if err := client.Mail(from); err != nil {
			return err
		}
		for _, addr := range to {
			if err := client.Rcpt(addr); err != nil {
				return err
			}
		}
		w, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := body.WriteTo(w); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})

	if err := gomail.Send(send, s.build(msg)); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return client.Quit()
}

// dial opens an authenticated session. The connection deadline covers the
// whole session so a stalled server cannot hold it open.
func (s *Sender) dial() (*smtp.Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)), s.timeout)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	tlsConfig := &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}
	if s.port == implicitTLSPort {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if s.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
	}

	if s.username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("SMTP authentication failed: %w", err)
			}
		}
	}

	return client, nil
}

func (s *Sender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}
	return m
}
