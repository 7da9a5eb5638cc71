package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/config"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

// Message is a single transactional email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// EmailService sends email through Resend or plain SMTP. Without
// credentials every send fails with an UNAVAILABLE error.
type EmailService struct {
	cfg          config.EmailConfig
	resendClient *resend.Client
	logger       zerolog.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, logger zerolog.Logger) *EmailService {
	s := &EmailService{
		cfg:    cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
	if cfg.Provider == "resend" && cfg.ResendAPIKey != "" {
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

// Configured reports whether the selected provider has credentials.
func (s *EmailService) Configured() bool {
	if s.cfg.Provider == "smtp" {
		return s.cfg.SMTPHost != "" && s.cfg.Username != "" && s.cfg.Password != ""
	}
	return s.resendClient != nil
}

// DefaultFrom is the configured sender, including the display name.
func (s *EmailService) DefaultFrom() string {
	if s.cfg.FromName == "" {
		return s.cfg.FromEmail
	}
	return (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromEmail}).String()
}

// Send delivers msg once. There are no retries.
func (s *EmailService) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.DefaultFrom()
	}
	if !s.Configured() {
		s.logger.Warn().Str("provider", s.cfg.Provider).Str("subject", msg.Subject).Msg("email not configured, message dropped")
		return apperrors.Unavailable("email")
	}
	if err := validateEmailAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := validateEmailAddress(msg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to: %w", err)
		}
	}

	if s.cfg.Provider == "smtp" {
		return s.sendViaSMTP(ctx, msg)
	}
	return s.sendViaResend(ctx, msg)
}

func (s *EmailService) sendViaResend(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return apperrors.Wrap(apperrors.ErrCodeUpstream,
				fmt.Sprintf("email rate limit exceeded (limit: %s, resets in: %s seconds)", rateLimitErr.Limit, rateLimitErr.Reset), err)
		}
		return apperrors.Wrap(apperrors.ErrCodeUpstream, "resend API error", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", msg.To).
		Msg("email sent via Resend")
	return nil
}

func (s *EmailService) sendViaSMTP(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	body := buildMIMEMessage(msg)

	// net/smtp has no context support; the send is abandoned, not aborted.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeUpstream, "smtp send failed", err)
		}
		s.logger.Info().Str("to", msg.To).Str("host", s.cfg.SMTPHost).Msg("email sent via SMTP")
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.ErrCodeUpstream, "smtp send timed out", ctx.Err())
	}
}

// buildMIMEMessage renders msg as multipart/alternative with a plain text
// part and, when present, an HTML part.
func buildMIMEMessage(msg Message) []byte {
	boundary := "mbs-" + uuid.NewString()

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mimeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")

	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML + "\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func mimeHeader(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	return mime.QEncoding.Encode("utf-8", s)
}

// validateEmailAddress rejects malformed addresses and header injection.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
