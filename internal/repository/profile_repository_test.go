package repository

import (
	"context"
	"testing"

	"optikart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProfileRepository(pool, zerolog.Nop())
	ctx := context.Background()
	userID := uuid.New()

	active := &model.PrescriptionProfile{
		ID:      uuid.New(),
		UserID:  userID,
		Label:   "Everyday",
		Payload: *testPayload("-1.25"),
		Active:  true,
	}
	inactive := &model.PrescriptionProfile{
		ID:      uuid.New(),
		UserID:  userID,
		Label:   "Old",
		Payload: *testPayload("-2.00"),
		Active:  false,
	}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	t.Run("GetByID returns any profile regardless of active flag", func(t *testing.T) {
		got, err := repo.GetByID(ctx, inactive.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, inactive.ID, got.ID)
		assert.False(t, got.Active)
		assert.True(t, got.Payload.Equal(&inactive.Payload))
	})

	t.Run("GetByID returns nil for an unknown id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ListByUser returns only active profiles", func(t *testing.T) {
		profiles, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, active.ID, profiles[0].ID)
	})

	t.Run("ListByUser for a user without profiles", func(t *testing.T) {
		profiles, err := repo.ListByUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})
}
