package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

func TestMemoryFeedRepositoryRoundTripAndExpiry(t *testing.T) {
	repo := NewMemoryFeedRepository()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := repo.Load(ctx, "k")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	raw := []models.Notification{{ID: "n1", Title: "Prova"}}
	snapshot := models.FeedSnapshot{Raw: raw, Criterion: models.NotificationFilterCriterion{Category: models.CategoryEvent}, FetchedAt: now}
	require.NoError(t, repo.Save(ctx, "k", snapshot, time.Minute))

	raw[0].Title = "mutated"
	loaded, err := repo.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Prova", loaded.Raw[0].Title)
	assert.Equal(t, models.CategoryEvent, loaded.Criterion.Category)

	now = now.Add(2 * time.Minute)
	_, err = repo.Load(ctx, "k")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryFeedRepositoryDelete(t *testing.T) {
	repo := NewMemoryFeedRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "k", models.FeedSnapshot{}, 0))
	require.NoError(t, repo.Delete(ctx, "k"))
	_, err := repo.Load(ctx, "k")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestRedisFeedRepositoryWithoutClient(t *testing.T) {
	repo := NewRedisFeedRepository(nil, nil)
	ctx := context.Background()

	_, err := repo.Load(ctx, "k")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Save(ctx, "k", models.FeedSnapshot{}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "k"))
	assert.NoError(t, repo.Close())
}

func TestMemoryFeedRepositorySweep(t *testing.T) {
	repo := NewMemoryFeedRepository()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "short", models.FeedSnapshot{}, time.Minute))
	require.NoError(t, repo.Save(ctx, "long", models.FeedSnapshot{}, time.Hour))
	require.NoError(t, repo.Save(ctx, "forever", models.FeedSnapshot{}, 0))

	now = now.Add(5 * time.Minute)
	removed, err := repo.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Load(ctx, "long")
	assert.NoError(t, err)
	_, err = repo.Load(ctx, "forever")
	assert.NoError(t, err)
}
