package services

import (
	"context"

	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/validation"
)

// FormResult is the outcome of every form action. Validation problems are
// reported in Errors; anything else is a generic Message.
type FormResult struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// Success builds a successful result.
func Success(message string) FormResult {
	return FormResult{Success: true, Message: message}
}

// Failure builds a failed result without field errors.
func Failure(message string) FormResult {
	return FormResult{Message: message}
}

// Invalid builds a failed result carrying per-field errors.
func Invalid(message string, errs validation.FieldErrors) FormResult {
	return FormResult{Message: message, Errors: errs}
}

const msgUnavailable = "Service unavailable. Please try again later."

// Store is the persistence the services need. *database.Gateway implements it
// and reports a missing datastore as an UNAVAILABLE error.
type Store interface {
	Insert(ctx context.Context, table string, record any) error
	Select(ctx context.Context, table string, dest any, q database.Query) error
}

// Notifier delivers a single email. *EmailService implements it.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
