package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/domain"
	"github.com/mbsadvocates/site/internal/metrics"
	"github.com/mbsadvocates/site/internal/validation"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

const (
	msgTestimonialInvalid = "Please check your form entries and try again."
	msgTestimonialFailed  = "Failed to submit testimonial. Please try again later."
	msgTestimonialThanks  = "Thank you for your feedback! Your testimonial will be reviewed and published shortly."
)

var newestFirst = []database.OrderBy{{Column: "created_at", Desc: true}}

// TestimonialService is the moderation gate for client testimonials.
// Public submissions always start unapproved and only approved rows are
// ever listed publicly.
type TestimonialService struct {
	store     Store
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewTestimonialService creates a new testimonial service
func NewTestimonialService(store Store, v *validation.Validator, logger zerolog.Logger) *TestimonialService {
	return &TestimonialService{
		store:     store,
		validator: v,
		logger:    logger.With().Str("component", "testimonials").Logger(),
	}
}

// Submit validates and stores a testimonial awaiting review. Any approval
// flag in the input is ignored.
func (s *TestimonialService) Submit(ctx context.Context, in validation.Input) FormResult {
	form, errs := s.validator.Testimonial(in)
	if errs != nil {
		s.logger.Info().Strs("fields", fieldNames(errs)).Msg("testimonial rejected")
		metrics.RecordTestimonialSubmission(metrics.OutcomeInvalid)
		return Invalid(msgTestimonialInvalid, errs)
	}

	record := &domain.Testimonial{
		ClientName: form.ClientName,
		Comment:    form.Comment,
		Rating:     form.Rating,
		Approved:   false,
	}
	if err := s.store.Insert(ctx, domain.TableTestimonials, record); err != nil {
		metrics.RecordTestimonialSubmission(metrics.OutcomeFailed)
		if apperrors.IsUnavailable(err) {
			s.logger.Warn().Msg("testimonial dropped: datastore not configured")
			return Failure(msgUnavailable)
		}
		logStoreError(s.logger, err, domain.TableTestimonials)
		return Failure(msgTestimonialFailed)
	}

	s.logger.Info().Str("id", record.ID).Msg("testimonial stored for review")
	metrics.RecordTestimonialSubmission(metrics.OutcomeAccepted)
	return Success(msgTestimonialThanks)
}

// ListApproved returns published testimonials, newest first. Rows that are
// not approved are dropped even if the store returns them.
func (s *TestimonialService) ListApproved(ctx context.Context) ([]domain.Testimonial, error) {
	var rows []domain.Testimonial
	err := s.store.Select(ctx, domain.TableTestimonials, &rows, database.Query{
		Filter: map[string]any{"approved": true},
		Order:  newestFirst,
	})
	if err != nil {
		return nil, err
	}

	approved := rows[:0]
	for _, t := range rows {
		if t.Approved {
			approved = append(approved, t)
		}
	}
	return approved, nil
}

// ListAll returns every testimonial, pending ones included, for review.
func (s *TestimonialService) ListAll(ctx context.Context) ([]domain.Testimonial, error) {
	var rows []domain.Testimonial
	if err := s.store.Select(ctx, domain.TableTestimonials, &rows, database.Query{Order: newestFirst}); err != nil {
		return nil, err
	}
	return rows, nil
}
