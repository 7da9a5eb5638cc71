package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"maps"
	"slices"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/domain"
	"github.com/mbsadvocates/site/internal/metrics"
	"github.com/mbsadvocates/site/internal/validation"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

//go:embed templates/contact_notification.*
var notificationFS embed.FS

var (
	notificationHTML = htmltemplate.Must(htmltemplate.ParseFS(notificationFS, "templates/contact_notification.html"))
	notificationText = texttemplate.Must(texttemplate.ParseFS(notificationFS, "templates/contact_notification.txt"))
)

const (
	msgContactInvalid = "Please check your entries and try again."
	msgContactFailed  = "Failed to send your message. Please try again later."
	msgContactThanks  = "Thank you for your message! We will get back to you shortly."
)

// ContactService handles the public contact form.
type ContactService struct {
	store     Store
	notifier  Notifier
	validator *validation.Validator
	rules     validation.ContactRules
	email     config.EmailConfig
	logger    zerolog.Logger
}

// NewContactService creates a new contact service
func NewContactService(store Store, notifier Notifier, v *validation.Validator, rules validation.ContactRules, email config.EmailConfig, logger zerolog.Logger) *ContactService {
	return &ContactService{
		store:     store,
		notifier:  notifier,
		validator: v,
		rules:     rules,
		email:     email,
		logger:    logger.With().Str("component", "contact").Logger(),
	}
}

// Submit validates, stores and announces one contact form submission. The
// result is decided once the record is stored; the notification outcome
// never changes it.
func (s *ContactService) Submit(ctx context.Context, in validation.Input) FormResult {
	form, errs := s.validator.Contact(in, s.rules)
	if errs != nil {
		s.logger.Info().Strs("fields", fieldNames(errs)).Msg("contact submission rejected")
		metrics.RecordContactSubmission(metrics.OutcomeInvalid)
		return Invalid(msgContactInvalid, errs)
	}

	record := &domain.ContactSubmission{
		Name:    form.Name,
		Email:   form.Email,
		Message: form.Message,
	}
	if err := s.store.Insert(ctx, domain.TableContactSubmissions, record); err != nil {
		metrics.RecordContactSubmission(metrics.OutcomeFailed)
		if apperrors.IsUnavailable(err) {
			s.logger.Warn().Msg("contact submission dropped: datastore not configured")
			return Failure(msgUnavailable)
		}
		logStoreError(s.logger, err, domain.TableContactSubmissions)
		return Failure(msgContactFailed)
	}

	s.logger.Info().Str("id", record.ID).Str("email", record.Email).Msg("contact submission stored")
	metrics.RecordContactSubmission(metrics.OutcomeAccepted)

	s.notify(ctx, record, form.Subject)
	return Success(msgContactThanks)
}

// notify sends the operator notification within the configured timeout.
// The request context may be cancelled once the response is written, so
// the send runs on a detached context.
func (s *ContactService) notify(ctx context.Context, record *domain.ContactSubmission, subject string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.email.Timeout)
	defer cancel()

	msg, err := buildContactNotification(record, subject, s.email.NotifyTo)
	if err != nil {
		metrics.RecordNotification("failed")
		s.logger.Error().Err(err).Str("id", record.ID).Msg("failed to render notification")
		return
	}

	err = s.notifier.Send(ctx, msg)
	switch {
	case err == nil:
		metrics.RecordNotification("sent")
		s.logger.Info().Str("id", record.ID).Msg("notification email sent")
	case apperrors.IsUnavailable(err):
		metrics.RecordNotification("unavailable")
		s.logger.Info().Str("id", record.ID).Msg("notification skipped: email not configured")
	default:
		metrics.RecordNotification("failed")
		s.logger.Warn().Err(err).Str("id", record.ID).Msg("failed to send notification email")
	}
}

type notificationData struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	Submitted string
}

func buildContactNotification(record *domain.ContactSubmission, subject, to string) (Message, error) {
	data := notificationData{
		ID:        record.ID,
		Name:      record.Name,
		Email:     record.Email,
		Subject:   subject,
		Message:   record.Message,
		Submitted: submittedAt(record.CreatedAt).Format("January 2, 2006 at 3:04 PM MST"),
	}

	var html, text bytes.Buffer
	if err := notificationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := notificationText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}

	title := subject
	if title == "" {
		from := record.Name
		if from == "" {
			from = record.Email
		}
		title = fmt.Sprintf("New Contact Form Submission from %s", from)
	}

	return Message{
		To:      to,
		ReplyTo: record.Email,
		Subject: title,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func submittedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func logStoreError(logger zerolog.Logger, err error, table string) {
	ev := logger.Error().Err(err).Str("table", table)
	if state := database.SQLState(err); state != "" {
		ev = ev.Str("sqlstate", state)
	}
	ev.Msg("datastore write failed")
}

func fieldNames(errs validation.FieldErrors) []string {
	return slices.Sorted(maps.Keys(errs))
}
