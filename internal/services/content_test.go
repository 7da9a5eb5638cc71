package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbsadvocates/site/internal/database"
	"github.com/mbsadvocates/site/internal/domain"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

func TestTeamMember_MalformedIDSkipsStore(t *testing.T) {
	store := newFakeStore()
	svc := NewContentService(store)

	_, err := svc.TeamMember(context.Background(), "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, store.selects)
}

func TestTeamMember_Missing(t *testing.T) {
	svc := NewContentService(newFakeStore())

	_, err := svc.TeamMember(context.Background(), uuid.NewString())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTeamMember_Found(t *testing.T) {
	id := uuid.NewString()
	store := newFakeStore()
	store.selectFunc = func(table string, dest any, q database.Query) error {
		assert.Equal(t, domain.TableTeamMembers, table)
		assert.Equal(t, id, q.Filter["id"])
		*dest.(*[]domain.TeamMember) = []domain.TeamMember{{ID: id, Name: "Mercy Baraka"}}
		return nil
	}

	got, err := NewContentService(store).TeamMember(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Mercy Baraka", got.Name)
}

func TestListings_UseDisplayOrder(t *testing.T) {
	store := newFakeStore()
	svc := NewContentService(store)
	ctx := context.Background()

	_, err := svc.Team(ctx)
	require.NoError(t, err)
	_, err = svc.Services(ctx)
	require.NoError(t, err)

	want := []database.OrderBy{{Column: "order"}, {Column: "created_at", Desc: true}}
	require.Len(t, store.selects, 2)
	assert.Equal(t, want, store.selects[0].Order)
	assert.Equal(t, want, store.selects[1].Order)
}
