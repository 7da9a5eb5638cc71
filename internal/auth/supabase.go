package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/config"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

// Session is the provider-issued proof of sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Claims are the fields the site reads from a provider access token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SupabaseProvider talks to the hosted auth provider's REST API. The site
// never stores or hashes credentials itself.
type SupabaseProvider struct {
	baseURL   string
	anonKey   string
	jwtSecret []byte
	client    *http.Client
	logger    zerolog.Logger
}

// NewSupabaseProvider builds a provider. It is usable without credentials
// but every call then fails with an UNAVAILABLE error.
func NewSupabaseProvider(cfg config.AuthConfig, logger zerolog.Logger) *SupabaseProvider {
	p := &SupabaseProvider{
		baseURL: cfg.SupabaseURL,
		anonKey: cfg.SupabaseAnonKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger.With().Str("component", "auth").Logger(),
	}
	if cfg.JWTSecret != "" {
		p.jwtSecret = []byte(cfg.JWTSecret)
	}
	return p
}

// Configured reports whether provider credentials are present.
func (p *SupabaseProvider) Configured() bool {
	return p.baseURL != "" && p.anonKey != ""
}

// SignIn exchanges email and password for a session.
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if !p.Configured() {
		return nil, apperrors.Unavailable("auth provider")
	}
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, apperrors.New(apperrors.ErrCodeUpstream, "provider returned no access token")
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	if !p.Configured() {
		return apperrors.Unavailable("auth provider")
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// UpdatePassword sets a new password for the user owning accessToken.
func (p *SupabaseProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if !p.Configured() {
		return apperrors.Unavailable("auth provider")
	}
	if accessToken == "" {
		return apperrors.New(apperrors.ErrCodeUnauthorized, "no session for password update")
	}
	return p.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": password}, nil)
}

// ValidateSession checks that token is a live session. With a JWT secret
// configured the token is verified locally; otherwise the provider is asked.
func (p *SupabaseProvider) ValidateSession(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "no session")
	}
	if !p.Configured() {
		return nil, apperrors.Unavailable("auth provider")
	}
	if p.jwtSecret != nil {
		return p.verifyToken(token)
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := p.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user); err != nil {
		return nil, err
	}
	return &Claims{
		Email:            user.Email,
		Role:             user.Role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	}, nil
}

func (p *SupabaseProvider) verifyToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("authenticated"),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid session token", err)
	}
	return claims, nil
}

// providerError is the error body shape of the auth API across versions.
type providerError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
}

func (e providerError) String() string {
	for _, s := range []string{e.Description, e.Msg, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

func (p *SupabaseProvider) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode auth request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUpstream, "auth provider request failed", err)
	}
	defer resp.Body.Close()

	p.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("auth provider call")

	if resp.StatusCode >= 300 {
		var perr providerError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&perr)
		msg := fmt.Sprintf("auth provider returned %d: %s", resp.StatusCode, perr.String())
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return apperrors.New(apperrors.ErrCodeUnauthorized, msg)
		default:
			return apperrors.New(apperrors.ErrCodeUpstream, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUpstream, "decode auth provider response", err)
	}
	return nil
}
