// Package web is the site's HTTP surface: public pages, form actions and
// the admin area.
package web

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"github.com/mbsadvocates/site/internal/auth"
	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/domain"
	"github.com/mbsadvocates/site/internal/metrics"
	"github.com/mbsadvocates/site/internal/services"
	"github.com/mbsadvocates/site/internal/validation"
)

const maxFormBytes = 64 << 10

// ContactForm handles the contact form action.
type ContactForm interface {
	Submit(ctx context.Context, in validation.Input) services.FormResult
}

// Testimonials is the moderation gate as seen by the handlers.
type Testimonials interface {
	Submit(ctx context.Context, in validation.Input) services.FormResult
	ListApproved(ctx context.Context) ([]domain.Testimonial, error)
	ListAll(ctx context.Context) ([]domain.Testimonial, error)
}

// Content reads firm-maintained listings.
type Content interface {
	Team(ctx context.Context) ([]domain.TeamMember, error)
	TeamMember(ctx context.Context, id string) (*domain.TeamMember, error)
	Services(ctx context.Context) ([]domain.Service, error)
	ContactSubmissions(ctx context.Context) ([]domain.ContactSubmission, error)
}

// Authenticator runs the admin session forms.
type Authenticator interface {
	SignIn(ctx context.Context, in validation.Input) (services.FormResult, *auth.Session)
	SignOut(ctx context.Context, accessToken string)
	UpdatePassword(ctx context.Context, accessToken string, in validation.Input) services.FormResult
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) services.HealthResult
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Contact      ContactForm
	Testimonials Testimonials
	Content      Content
	Auth         Authenticator
	Health       HealthChecker
	Sessions     auth.SessionValidator
	Renderer     *Renderer
	Config       *config.Config
	Logger       zerolog.Logger
}

// Server routes requests to handlers.
type Server struct {
	contact      ContactForm
	testimonials Testimonials
	content      Content
	auth         Authenticator
	health       HealthChecker
	sessions     auth.SessionValidator
	pages        *Renderer
	cfg          *config.Config
	jar          auth.CookieJar
	paths        auth.Paths
	mux          goahttp.Muxer
	logger       zerolog.Logger
}

// NewServer creates a new server
func NewServer(d Deps) *Server {
	return &Server{
		contact:      d.Contact,
		testimonials: d.Testimonials,
		content:      d.Content,
		auth:         d.Auth,
		health:       d.Health,
		sessions:     d.Sessions,
		pages:        d.Renderer,
		cfg:          d.Config,
		jar:          auth.CookieJar{Name: d.Config.Auth.CookieName, Secure: d.Config.Security.SecureCookies},
		paths:        auth.DefaultPaths,
		logger:       d.Logger.With().Str("component", "web").Logger(),
	}
}

// Handler returns the routes wrapped in the middleware chain, outermost
// first: security headers, CORS, request id, request logging, Prometheus,
// request context, CSRF, admin guard.
func (s *Server) Handler() (http.Handler, error) {
	var h http.Handler = s.routes()

	h = auth.Guard(s.sessions, s.jar, s.paths, s.logger)(h)
	if s.cfg.Security.CSRFEnabled {
		key, err := CSRFKey(s.cfg.Security.SessionSecret)
		if err != nil {
			return nil, err
		}
		h = CSRFProtection(key, s.cfg.Security.SecureCookies, s.logger)(h)
	}
	h = middleware.PopulateRequestContext()(h)
	h = metrics.PrometheusMiddleware(h)
	h = RequestLogging(s.logger)(h)
	h = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(h)
	h = CORS(s.cfg.CORS, s.cfg.App.Debug)(h)
	h = SecurityHeaders(s.cfg.App)(h)
	return h, nil
}

func (s *Server) routes() goahttp.Muxer {
	mux := goahttp.NewMuxer()
	s.mux = mux

	mux.Handle(http.MethodGet, "/", s.landing)
	mux.Handle(http.MethodGet, "/team/{id}", s.teamMember)
	mux.Handle(http.MethodPost, "/contact", s.submitContact)
	mux.Handle(http.MethodPost, "/testimonials", s.submitTestimonial)
	mux.Handle(http.MethodGet, placeholderPath, servePlaceholder)
	mux.Handle(http.MethodGet, "/health", s.healthCheck)
	mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	mux.Handle(http.MethodGet, "/admin", s.adminRoot)
	mux.Handle(http.MethodGet, "/admin/login", s.loginPage)
	mux.Handle(http.MethodPost, "/admin/login", s.signIn)
	mux.Handle(http.MethodPost, "/admin/logout", s.signOut)
	mux.Handle(http.MethodGet, "/admin/reset-password", s.resetPage)
	mux.Handle(http.MethodPost, "/admin/reset-password", s.resetPassword)
	mux.Handle(http.MethodGet, "/admin/dashboard", s.dashboard)
	mux.Handle(http.MethodGet, "/admin/testimonials", s.adminTestimonials)
	mux.Handle(http.MethodGet, "/admin/contact-submissions", s.adminContacts)
	mux.Handle(http.MethodGet, "/admin/team", s.adminTeam)
	mux.Handle(http.MethodGet, "/admin/services", s.adminServices)

	return mux
}

// errBadForm is returned for bodies that cannot be decoded.
var errBadForm = errors.New("malformed form body")

// decodeForm reads an urlencoded, multipart or JSON body into untyped input.
func decodeForm(w http.ResponseWriter, r *http.Request) (validation.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errors.Join(errBadForm, err)
		}
		return validation.FromValues(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return nil, errors.Join(errBadForm, err)
		}
		return validation.FromValues(r.PostForm), nil
	default:
		in := validation.Input{}
		if err := goahttp.RequestDecoder(r).Decode(&in); err != nil {
			return nil, errors.Join(errBadForm, err)
		}
		return in, nil
	}
}

// writeJSON encodes v with goa's response encoder, always as JSON.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	ctx := context.WithValue(r.Context(), goahttp.ContentTypeKey, "application/json")
	enc := goahttp.ResponseEncoder(ctx, w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = enc.Encode(v)
}

func (s *Server) badForm(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Info().Err(err).Str("path", r.URL.Path).Msg("rejected form body")
	writeJSON(w, r, http.StatusBadRequest, services.Failure("Invalid form submission."))
}

func servePlaceholder(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(placeholderSVG)
}
