package web

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/placeholder.svg
var placeholderSVG []byte

const placeholderPath = "/placeholder.svg"

var (
	// ugcPolicy keeps basic formatting in firm-authored rich text.
	ugcPolicy = bluemonday.UGCPolicy()
	// strictPolicy reduces rich text to plain text for excerpts.
	strictPolicy = bluemonday.StrictPolicy()
)

var publicPages = []string{"landing.html", "team_member.html", "not_found.html", "error.html"}

var adminPages = []string{
	"admin_login.html",
	"admin_reset.html",
	"admin_dashboard.html",
	"admin_testimonials.html",
	"admin_contacts.html",
	"admin_team.html",
	"admin_services.html",
}

// view is the data every page template receives.
type view struct {
	Title       string
	Description string
	Year        int
	CSRFField   template.HTML
	Admin       *auth.Claims
	Failed      bool
	Data        any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

// NewRenderer parses every page with its layout.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(publicPages)+len(adminPages)),
		logger: logger.With().Str("component", "render").Logger(),
	}
	for _, name := range publicPages {
		if err := r.parse(name, "templates/layout.html"); err != nil {
			return nil, err
		}
	}
	for _, name := range adminPages {
		if err := r.parse(name, "templates/admin_layout.html"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) parse(name, layout string) error {
	t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, layout, "templates/partials.html", "templates/"+name)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	r.pages[name] = t
	return nil
}

// Render writes page with status. Output is buffered so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, v view) {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	v.Year = time.Now().Year()
	v.CSRFField = csrf.TemplateField(req)
	if v.Admin == nil {
		if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
			v.Admin = claims
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		r.logger.Error().Err(err).Str("template", name).Msg("template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var templateFuncs = template.FuncMap{
	"richText": richText,
	"excerpt":  excerpt,
	"imageURL": imageURL,
	"stars":    stars,
	"date": func(t time.Time) string {
		return t.Format("2 Jan 2006, 15:04")
	},
}

func stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func richText(s string) template.HTML {
	return template.HTML(ugcPolicy.Sanitize(s))
}

// excerpt strips markup and shortens s to at most n runes.
func excerpt(s string, n int) string {
	plain := strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
	if utf8.RuneCountInString(plain) <= n {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

func imageURL(u string) string {
	if strings.TrimSpace(u) == "" {
		return placeholderPath
	}
	return u
}
