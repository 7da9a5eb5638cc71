package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/domain"
	"github.com/mbsadvocates/site/internal/validation"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

var testEmailConfig = config.EmailConfig{
	NotifyTo: "info@mbsadvocates.com",
	Timeout:  time.Second,
}

func newContactService(store Store, notifier Notifier) *ContactService {
	return NewContactService(store, notifier, validation.New(), validation.DefaultContactRules, testEmailConfig, zerolog.Nop())
}

func validContact() validation.Input {
	return validation.Input{
		"name":    "Wanjiru Kamau",
		"email":   "wanjiru@example.com",
		"message": "I need advice on a land transfer.",
	}
}

func TestContactSubmit_Success(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newContactService(store, notifier)

	res := svc.Submit(context.Background(), validContact())

	assert.Equal(t, Success("Thank you for your message! We will get back to you shortly."), res)
	require.Len(t, store.inserts, 1)
	assert.Equal(t, domain.TableContactSubmissions, store.inserts[0].table)
	rec := store.inserts[0].record.(*domain.ContactSubmission)
	assert.Equal(t, "Wanjiru Kamau", rec.Name)

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, "info@mbsadvocates.com", msg.To)
	assert.Equal(t, "wanjiru@example.com", msg.ReplyTo)
	assert.Equal(t, "New Contact Form Submission from Wanjiru Kamau", msg.Subject)
	assert.Contains(t, msg.HTML, "I need advice on a land transfer.")
	assert.Contains(t, msg.Text, "Email: wanjiru@example.com")
}

func TestContactSubmit_InvalidTouchesNothing(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newContactService(store, notifier)

	in := validContact()
	in["message"] = "too short"
	res := svc.Submit(context.Background(), in)

	assert.False(t, res.Success)
	assert.Equal(t, "Please check your entries and try again.", res.Message)
	assert.Equal(t, []string{"Message must be at least 10 characters."}, res.Errors["message"])
	assert.Empty(t, store.inserts)
	assert.Empty(t, notifier.sent)
}

func TestContactSubmit_PersistenceFailureSkipsNotification(t *testing.T) {
	store := newFakeStore()
	store.insertErr = apperrors.Wrap(apperrors.ErrCodeUpstream, "insert failed", errors.New("connection reset"))
	notifier := &fakeNotifier{}
	svc := newContactService(store, notifier)

	res := svc.Submit(context.Background(), validContact())

	assert.Equal(t, Failure("Failed to send your message. Please try again later."), res)
	assert.Empty(t, notifier.sent)
	assert.NotContains(t, res.Message, "connection reset")
}

func TestContactSubmit_NotificationFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{err: errors.New("smtp: 554 rejected")}
	svc := newContactService(store, notifier)

	res := svc.Submit(context.Background(), validContact())

	assert.True(t, res.Success)
	assert.Len(t, store.inserts, 1)
	assert.Len(t, notifier.sent, 1)
}

func TestContactSubmit_UnconfiguredDatastore(t *testing.T) {
	store := newFakeStore()
	store.insertErr = apperrors.Unavailable("datastore")
	notifier := &fakeNotifier{}
	svc := newContactService(store, notifier)

	res := svc.Submit(context.Background(), validContact())

	assert.Equal(t, Failure("Service unavailable. Please try again later."), res)
	assert.Empty(t, notifier.sent)
}

func TestContactSubmit_WithoutDatastoreConnection(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newContactService(database.NewGateway(nil), notifier)

	res := svc.Submit(context.Background(), validContact())

	assert.Equal(t, Failure("Service unavailable. Please try again later."), res)
	assert.Empty(t, notifier.sent)
}

func TestContactSubmit_NotificationSurvivesCancelledRequest(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := newContactService(store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.Submit(ctx, validContact())

	assert.True(t, res.Success)
	assert.Len(t, notifier.sent, 1)
}

func TestContactSubmit_RelaxedVariantUsesSubject(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	rules := validation.ContactRules{RequireSubject: true, MessageMin: 1}
	svc := NewContactService(store, notifier, validation.New(), rules, testEmailConfig, zerolog.Nop())

	res := svc.Submit(context.Background(), validation.Input{
		"email":   "client@example.com",
		"subject": "Lease review",
		"message": "Hi",
	})

	require.True(t, res.Success)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Lease review", notifier.sent[0].Subject)
	assert.Empty(t, store.inserts[0].record.(*domain.ContactSubmission).Name)
}

func TestBuildContactNotification_EscapesHTML(t *testing.T) {
	rec := &domain.ContactSubmission{
		ID:      "id-1",
		Name:    "<b>Mallory</b>",
		Email:   "m@example.com",
		Message: "<script>alert(1)</script>",
	}
	msg, err := buildContactNotification(rec, "", "info@mbsadvocates.com")
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.True(t, strings.Contains(msg.Text, "<script>"), "plain text part is not escaped")
}
