package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/auth"
	"github.com/mbsadvocates/site/internal/metrics"
	"github.com/mbsadvocates/site/internal/validation"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

const (
	msgAuthUnavailable    = "Authentication service unavailable."
	msgSignInInvalid      = "Invalid email or password format."
	msgSignInRejected     = "Invalid credentials. Please try again."
	msgSignInUnexpected   = "An unexpected error occurred during login."
	msgPasswordInvalid    = "Please check your password entries."
	msgPasswordFailed     = "Failed to update password. Please try again."
	msgPasswordUnexpected = "An unexpected error occurred during password update."
	msgPasswordUpdated    = "Password updated successfully!"
)

// AuthProvider is the hosted identity service. *auth.SupabaseProvider
// implements it.
type AuthProvider interface {
	Configured() bool
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// AuthService runs the admin sign-in, sign-out and password forms. It never
// sees stored credentials; the provider owns them.
type AuthService struct {
	provider  AuthProvider
	validator *validation.Validator
	dashboard string
	logger    zerolog.Logger
}

// NewAuthService creates a new auth service. dashboard is where a
// successful sign-in lands.
func NewAuthService(provider AuthProvider, v *validation.Validator, dashboard string, logger zerolog.Logger) *AuthService {
	return &AuthService{
		provider:  provider,
		validator: v,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// SignIn validates the form and exchanges the credentials for a session.
// The session is nil unless the result is successful.
func (s *AuthService) SignIn(ctx context.Context, in validation.Input) (FormResult, *auth.Session) {
	if !s.provider.Configured() {
		return Failure(msgAuthUnavailable), nil
	}

	creds, errs := s.validator.Credentials(in)
	if errs != nil {
		return Invalid(msgSignInInvalid, errs), nil
	}

	session, err := s.provider.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		switch {
		case apperrors.IsUnauthorized(err):
			s.logger.Info().Str("email", creds.Email).Msg("sign-in rejected")
			return Failure(msgSignInRejected), nil
		case apperrors.IsUnavailable(err):
			return Failure(msgAuthUnavailable), nil
		default:
			s.logger.Error().Err(err).Msg("sign-in failed")
			return Failure(msgSignInUnexpected), nil
		}
	}

	metrics.RecordAuthAttempt(true)
	s.logger.Info().Str("email", creds.Email).Msg("admin signed in")
	result := Success("Signed in.")
	result.Redirect = s.dashboard
	return result, session
}

// SignOut revokes the session. Failures are logged; the caller clears the
// cookie regardless.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) {
	if accessToken == "" || !s.provider.Configured() {
		return
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn().Err(err).Msg("sign-out not confirmed by provider")
	}
}

// UpdatePassword sets a new password for the user behind accessToken.
func (s *AuthService) UpdatePassword(ctx context.Context, accessToken string, in validation.Input) FormResult {
	if !s.provider.Configured() {
		return Failure(msgAuthUnavailable)
	}

	password, errs := s.validator.PasswordReset(in)
	if errs != nil {
		return Invalid(msgPasswordInvalid, errs)
	}

	if err := s.provider.UpdatePassword(ctx, accessToken, password); err != nil {
		switch {
		case apperrors.IsUnauthorized(err):
			s.logger.Info().Err(err).Msg("password update rejected")
			return Failure(msgPasswordFailed)
		case apperrors.IsUnavailable(err):
			return Failure(msgAuthUnavailable)
		default:
			s.logger.Error().Err(err).Msg("password update failed")
			return Failure(msgPasswordUnexpected)
		}
	}

	s.logger.Info().Msg("admin password updated")
	return Success(msgPasswordUpdated)
}
