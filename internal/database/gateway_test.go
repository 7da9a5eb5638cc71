package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mbsadvocates/site/internal/config"
	"github.com/mbsadvocates/site/internal/domain"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{URL: ":memory:", AutoMigrate: true}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpen_EmptyURLIsUnconfigured(t *testing.T) {
	db, err := Open(config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.False(t, NewGateway(db).Configured())
}

func TestGateway_Unconfigured(t *testing.T) {
	g := NewGateway(nil)
	ctx := context.Background()

	err := g.Insert(ctx, domain.TableContactSubmissions, &domain.ContactSubmission{Name: "Jo"})
	assert.True(t, apperrors.IsUnavailable(err))

	var rows []domain.Service
	err = g.Select(ctx, domain.TableServices, &rows, Query{})
	assert.True(t, apperrors.IsUnavailable(err))
	assert.True(t, apperrors.IsUnavailable(g.Ping(ctx)))
}

func TestGateway_InsertAssignsIDAndTimestamp(t *testing.T) {
	g := NewGateway(openTestDB(t))
	ctx := context.Background()

	rec := &domain.ContactSubmission{Name: "Jo", Email: "a@b.com", Message: "0123456789"}
	require.NoError(t, g.Insert(ctx, domain.TableContactSubmissions, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	var rows []domain.ContactSubmission
	require.NoError(t, g.Select(ctx, domain.TableContactSubmissions, &rows, Query{}))
	require.Len(t, rows, 1)
	assert.Equal(t, "a@b.com", rows[0].Email)
}

func TestGateway_SelectOrdersByOrderThenNewest(t *testing.T) {
	g := NewGateway(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []domain.Service{
		{Title: "Litigation", Order: 2, CreatedAt: base},
		{Title: "Corporate", Order: 1, CreatedAt: base},
		{Title: "Tax", Order: 1, CreatedAt: base.Add(time.Hour)},
		{Title: "Land", Order: 0, CreatedAt: base},
	}
	for i := range seed {
		require.NoError(t, g.Insert(ctx, domain.TableServices, &seed[i]))
	}

	var rows []domain.Service
	err := g.Select(ctx, domain.TableServices, &rows, Query{
		Order: []OrderBy{{Column: "order"}, {Column: "created_at", Desc: true}},
	})
	require.NoError(t, err)

	titles := make([]string, len(rows))
	for i, r := range rows {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"Land", "Tax", "Corporate", "Litigation"}, titles)
}

func TestGateway_SelectFilter(t *testing.T) {
	g := NewGateway(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, g.Insert(ctx, domain.TableTestimonials, &domain.Testimonial{ClientName: "Ann", Comment: "c", Approved: true}))
	require.NoError(t, g.Insert(ctx, domain.TableTestimonials, &domain.Testimonial{ClientName: "Ben", Comment: "c"}))

	var rows []domain.Testimonial
	require.NoError(t, g.Select(ctx, domain.TableTestimonials, &rows, Query{Filter: map[string]any{"approved": true}}))
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0].ClientName)
}

func TestGateway_SelectWrapsErrors(t *testing.T) {
	g := NewGateway(openTestDB(t))

	var rows []domain.Service
	err := g.Select(context.Background(), "no_such_table", &rows, Query{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUpstream, apperrors.CodeOf(err))
}

func TestSQLState(t *testing.T) {
	err := apperrors.Wrap(apperrors.ErrCodeUpstream, "insert failed", &pgconn.PgError{Code: "23505"})
	assert.Equal(t, "23505", SQLState(err))
	assert.Equal(t, "", SQLState(errors.New("plain")))
}
