package web

import (
	"net/http"

	"github.com/mbsadvocates/site/internal/domain"
	"github.com/mbsadvocates/site/internal/validation"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

const siteDescription = "MBS Advocates: advocates, commissioners for oaths and notaries public."

type landingData struct {
	Team               []domain.TeamMember
	TeamFailed         bool
	Services           []domain.Service
	ServicesFailed     bool
	Testimonials       []domain.Testimonial
	TestimonialsFailed bool
	Contact            validation.ContactRules
}

// landing renders the single public page. Each listing degrades on its own:
// an unconfigured datastore shows it empty, any other failure adds a notice.
func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.notFound(w, r)
		return
	}
	ctx := r.Context()
	data := landingData{Contact: s.contactRules()}

	team, err := s.content.Team(ctx)
	data.Team, data.TeamFailed = team, s.listingFailed(err, "team")

	svcs, err := s.content.Services(ctx)
	data.Services, data.ServicesFailed = svcs, s.listingFailed(err, "services")

	testimonials, err := s.testimonials.ListApproved(ctx)
	data.Testimonials, data.TestimonialsFailed = testimonials, s.listingFailed(err, "testimonials")

	s.pages.Render(w, r, http.StatusOK, "landing.html", view{
		Title:       s.cfg.App.Name,
		Description: siteDescription,
		Data:        data,
	})
}

func (s *Server) listingFailed(err error, listing string) bool {
	if err == nil || apperrors.IsUnavailable(err) {
		return false
	}
	s.logger.Error().Err(err).Str("listing", listing).Msg("failed to load listing")
	return true
}

func (s *Server) contactRules() validation.ContactRules {
	c := s.cfg.Contact
	return validation.ContactRules{
		RequireName:    c.RequireName,
		NameMin:        c.NameMin,
		RequireSubject: c.RequireSubject,
		MessageMin:     c.MessageMin,
	}
}

func (s *Server) teamMember(w http.ResponseWriter, r *http.Request) {
	member, err := s.content.TeamMember(r.Context(), s.mux.Vars(r)["id"])
	switch {
	case err == nil:
		s.pages.Render(w, r, http.StatusOK, "team_member.html", view{
			Title:       member.Name,
			Description: member.Title,
			Data:        member,
		})
	case apperrors.IsNotFound(err), apperrors.IsUnavailable(err):
		s.notFound(w, r)
	default:
		s.logger.Error().Err(err).Msg("failed to load team member")
		s.pages.Render(w, r, http.StatusInternalServerError, "error.html", view{})
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, r, http.StatusNotFound, "not_found.html", view{})
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.contact.Submit(r.Context(), in))
}

func (s *Server) submitTestimonial(w http.ResponseWriter, r *http.Request) {
	in, err := decodeForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.testimonials.Submit(r.Context(), in))
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.health.Check(r.Context()))
}
