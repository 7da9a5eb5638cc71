package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		hasSession bool
		want       Decision
	}{
		{"dashboard without session", "/admin/dashboard", false, Decision{Redirect, "/admin/login"}},
		{"admin root without session", "/admin", false, Decision{Redirect, "/admin/login"}},
		{"nested without session", "/admin/testimonials/pending", false, Decision{Redirect, "/admin/login"}},
		{"login without session", "/admin/login", false, Decision{Action: Pass}},
		{"reset without session", "/admin/reset-password", false, Decision{Action: Pass}},
		{"login with session", "/admin/login", true, Decision{Redirect, "/admin/dashboard"}},
		{"reset with session", "/admin/reset-password", true, Decision{Redirect, "/admin/dashboard"}},
		{"dashboard with session", "/admin/dashboard", true, Decision{Action: Pass}},
		{"public page", "/", false, Decision{Action: Pass}},
		{"team page", "/team/123", false, Decision{Action: Pass}},
		{"lookalike prefix", "/administrator", false, Decision{Action: Pass}},
		{"trailing slash", "/admin/login/", false, Decision{Action: Pass}},
		{"dot segments", "/admin/login/../dashboard", false, Decision{Redirect, "/admin/login"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.path, tt.hasSession, DefaultPaths))
		})
	}
}

type fakeValidator struct {
	tokens map[string]*Claims
	err    error
	calls  int
}

func (f *fakeValidator) ValidateSession(_ context.Context, token string) (*Claims, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.tokens[token]; ok {
		return c, nil
	}
	return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "bad token")
}

func newGuarded(t *testing.T, v SessionValidator) (http.Handler, *bool) {
	t.Helper()
	reached := new(bool)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		if c, ok := ClaimsFromContext(r.Context()); ok {
			w.Header().Set("X-Admin", c.Email)
		}
		w.WriteHeader(http.StatusOK)
	})
	jar := CookieJar{Name: "session"}
	return Guard(v, jar, DefaultPaths, zerolog.Nop())(next), reached
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	v := &fakeValidator{}
	h, reached := newGuarded(t, v)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	assert.False(t, *reached)
	assert.Zero(t, v.calls)
}

func TestGuard_PassesValidSession(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*Claims{"good": {Email: "admin@mbsadvocates.com"}}}
	h, reached := newGuarded(t, v)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "admin@mbsadvocates.com", rec.Header().Get("X-Admin"))
}

func TestGuard_SignedInUserLeavesLogin(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*Claims{"good": {}}}
	h, reached := newGuarded(t, v)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	assert.False(t, *reached)
}

func TestGuard_InvalidCookieIsClearedAndTreatedAsAnonymous(t *testing.T) {
	v := &fakeValidator{}
	h, reached := newGuarded(t, v)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestGuard_ProviderOutageKeepsCookie(t *testing.T) {
	for _, err := range []error{
		apperrors.Unavailable("auth provider"),
		apperrors.New(apperrors.ErrCodeUpstream, "auth provider returned 503"),
	} {
		v := &fakeValidator{err: err}
		h, reached := newGuarded(t, v)

		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code, err.Error())
		assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
		assert.False(t, *reached)
		assert.Empty(t, rec.Result().Cookies(), "cookie must survive a failed check: %v", err)
	}
}

func TestGuard_IgnoresPublicPaths(t *testing.T) {
	v := &fakeValidator{}
	h, reached := newGuarded(t, v)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "whatever"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Zero(t, v.calls)
}
