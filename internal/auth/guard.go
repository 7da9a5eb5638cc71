package auth

import (
	"context"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

// Paths classifies the admin area for the guard.
type Paths struct {
	Prefix    string
	Login     string
	Dashboard string
	// Allowed are reachable without a session; a signed-in user is sent
	// to Dashboard instead.
	Allowed []string
}

// DefaultPaths is the admin layout served by the site.
var DefaultPaths = Paths{
	Prefix:    "/admin",
	Login:     "/admin/login",
	Dashboard: "/admin/dashboard",
	Allowed:   []string{"/admin/login", "/admin/reset-password"},
}

// Action is the outcome of a guard decision.
type Action int

const (
	Pass Action = iota
	Redirect
)

// Decision is what the guard does with one request.
type Decision struct {
	Action   Action
	Location string
}

// Decide classifies urlPath against paths. It has no side effects.
//
//	no session + protected path        -> redirect to Login
//	session    + login/reset path      -> redirect to Dashboard
//	anything else                      -> pass
func Decide(urlPath string, hasSession bool, paths Paths) Decision {
	p := cleanPath(urlPath)
	if !UnderPrefix(p, paths.Prefix) {
		return Decision{Action: Pass}
	}
	allowed := slices.Contains(paths.Allowed, p)
	switch {
	case !hasSession && !allowed:
		return Decision{Action: Redirect, Location: paths.Login}
	case hasSession && allowed:
		return Decision{Action: Redirect, Location: paths.Dashboard}
	default:
		return Decision{Action: Pass}
	}
}

// UnderPrefix reports whether p is prefix itself or a path below it.
func UnderPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// SessionValidator answers whether a token is a live session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*Claims, error)
}

// Guard runs Decide for every request under the admin prefix before any
// admin handler executes. Requests outside the prefix are untouched.
func Guard(validator SessionValidator, jar CookieJar, paths Paths, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "guard").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !UnderPrefix(cleanPath(r.URL.Path), paths.Prefix) {
				next.ServeHTTP(w, r)
				return
			}

			var claims *Claims
			if token := jar.Token(r); token != "" {
				c, err := validator.ValidateSession(r.Context(), token)
				switch {
				case apperrors.IsUnauthorized(err):
					log.Debug().Err(err).Msg("session rejected")
					jar.Clear(w)
				case err != nil:
					log.Warn().Err(err).Msg("session check failed")
				default:
					claims = c
				}
			}

			d := Decide(r.URL.Path, claims != nil, paths)
			if d.Action == Redirect {
				http.Redirect(w, r, d.Location, http.StatusFound)
				return
			}

			ctx := r.Context()
			if claims != nil {
				ctx = WithClaims(ctx, claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
