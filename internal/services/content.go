package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/domain"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

var displayOrder = []database.OrderBy{
	{Column: "order"},
	{Column: "created_at", Desc: true},
}

// ContentService reads the firm-maintained content: team and services.
type ContentService struct {
	store Store
}

// NewContentService creates a new content service
func NewContentService(store Store) *ContentService {
	return &ContentService{store: store}
}

// Team lists team members in display order.
func (s *ContentService) Team(ctx context.Context) ([]domain.TeamMember, error) {
	var rows []domain.TeamMember
	if err := s.store.Select(ctx, domain.TableTeamMembers, &rows, database.Query{Order: displayOrder}); err != nil {
		return nil, err
	}
	return rows, nil
}

// TeamMember returns one team member. Malformed ids and missing rows are
// both NOT_FOUND.
func (s *ContentService) TeamMember(ctx context.Context, id string) (*domain.TeamMember, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "team member not found")
	}

	var rows []domain.TeamMember
	q := database.Query{Filter: map[string]any{"id": parsed.String()}, Limit: 1}
	if err := s.store.Select(ctx, domain.TableTeamMembers, &rows, q); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "team member not found")
	}
	return &rows[0], nil
}

// Services lists the firm's services in display order.
func (s *ContentService) Services(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	if err := s.store.Select(ctx, domain.TableServices, &rows, database.Query{Order: displayOrder}); err != nil {
		return nil, err
	}
	return rows, nil
}

// ContactSubmissions lists stored contact submissions, newest first.
func (s *ContentService) ContactSubmissions(ctx context.Context) ([]domain.ContactSubmission, error) {
	var rows []domain.ContactSubmission
	if err := s.store.Select(ctx, domain.TableContactSubmissions, &rows, database.Query{Order: newestFirst}); err != nil {
		return nil, err
	}
	return rows, nil
}
