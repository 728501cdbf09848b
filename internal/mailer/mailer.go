// Package mailer delivers transactional email. Delivery is a thin wrapper
// around an SMTP provider; when no SMTP host is configured the mailer
// degrades to logging the message, which keeps local development working
// without an email account.
package mailer

import (
	"fmt"
	"net/smtp"

	"fintrack/internal/config"
	"fintrack/internal/logger"
)

// Mailer sends a plain-text email to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// New returns an SMTP-backed mailer when SMTP_HOST is configured,
// otherwise a mailer that only logs outgoing messages.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		logger.Get().Warn("SMTP_HOST not set, outgoing email will be logged instead of sent")
		return &logMailer{}
	}
	return &smtpMailer{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// smtpMailer sends mail through a plain-auth SMTP relay.
type smtpMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// logMailer writes outgoing mail to the log. Used in development and tests.
type logMailer struct{}

func (m *logMailer) Send(to, subject, body string) error {
	logger.Get().Infow("outgoing email (not sent)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// VerificationEmail builds the subject and body for an email-verification
// message pointing at the frontend's verify-email page.
func VerificationEmail(clientURL, token string) (subject, body string) {
	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", clientURL, token)
	subject = "Please verify your email address"
	body = fmt.Sprintf("Welcome to Fintrack!\n\nPlease verify your email by opening the link below:\n\n%s\n\nThe link expires in one hour. If you did not create an account, you can ignore this message.", verificationURL)
	return subject, body
}
