package web

import (
	"net/http"
	"strings"
)

// defaultSessionSeconds is used when the provider omits expires_in.
const defaultSessionSeconds = 3600

type dashboardData struct {
	Testimonials int
	Pending      int
	Contacts     int
	Team         int
	Services     int
	Failed       bool
}

func (s *Server) adminRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.paths.Dashboard, http.StatusFound)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, r, http.StatusOK, "admin_login.html", view{Title: "Admin Login"})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}

	result, session := s.auth.SignIn(r.Context(), in)
	if session != nil {
		maxAge := session.ExpiresIn
		if maxAge <= 0 {
			maxAge = defaultSessionSeconds
		}
		s.jar.Set(w, session.AccessToken, maxAge)
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if token := s.jar.Token(r); token != "" {
		s.auth.SignOut(r.Context(), token)
	}
	s.jar.Clear(w)
	http.Redirect(w, r, s.paths.Login, http.StatusFound)
}

func (s *Server) resetPage(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, r, http.StatusOK, "admin_reset.html", view{Title: "Reset password"})
}

// resetPassword accepts the recovery token from the form, as the reset link
// delivers it in the URL fragment, and falls back to the session cookie.
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}

	token := strings.TrimSpace(in.String("access_token"))
	if token == "" {
		token = s.jar.Token(r)
	}
	writeJSON(w, r, http.StatusOK, s.auth.UpdatePassword(r.Context(), token, in))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data dashboardData

	if all, err := s.testimonials.ListAll(ctx); err != nil {
		data.Failed = s.listingFailed(err, "testimonials")
	} else {
		data.Testimonials = len(all)
		for _, t := range all {
			if !t.Approved {
				data.Pending++
			}
		}
	}
	if contacts, err := s.content.ContactSubmissions(ctx); err != nil {
		data.Failed = s.listingFailed(err, "contact_submissions") || data.Failed
	} else {
		data.Contacts = len(contacts)
	}
	if team, err := s.content.Team(ctx); err != nil {
		data.Failed = s.listingFailed(err, "team") || data.Failed
	} else {
		data.Team = len(team)
	}
	if svcs, err := s.content.Services(ctx); err != nil {
		data.Failed = s.listingFailed(err, "services") || data.Failed
	} else {
		data.Services = len(svcs)
	}

	s.pages.Render(w, r, http.StatusOK, "admin_dashboard.html", view{Title: "Dashboard", Data: data})
}

func (s *Server) adminTestimonials(w http.ResponseWriter, r *http.Request) {
	items, err := s.testimonials.ListAll(r.Context())
	s.renderListing(w, r, "admin_testimonials.html", "Testimonials", items, s.listingFailed(err, "testimonials"))
}

func (s *Server) adminContacts(w http.ResponseWriter, r *http.Request) {
	items, err := s.content.ContactSubmissions(r.Context())
	s.renderListing(w, r, "admin_contacts.html", "Contact Submissions", items, s.listingFailed(err, "contact_submissions"))
}

func (s *Server) adminTeam(w http.ResponseWriter, r *http.Request) {
	items, err := s.content.Team(r.Context())
	s.renderListing(w, r, "admin_team.html", "Team Members", items, s.listingFailed(err, "team"))
}

func (s *Server) adminServices(w http.ResponseWriter, r *http.Request) {
	items, err := s.content.Services(r.Context())
	s.renderListing(w, r, "admin_services.html", "Services", items, s.listingFailed(err, "services"))
}

func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, page, title string, items any, failed bool) {
	s.pages.Render(w, r, http.StatusOK, page, view{Title: title, Failed: failed, Data: items})
}
