package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

const feedKeyPrefix = "portal:feed:"

// RedisFeedRepository keeps notification feed snapshots in Redis with a sliding TTL.
type RedisFeedRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisFeedRepository constructs a Redis backed feed repository.
func NewRedisFeedRepository(client *redis.Client, logger *zap.Logger) *RedisFeedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeedRepository{client: client, logger: logger}
}

// Load returns the snapshot stored for key or ErrCacheMiss.
func (r *RedisFeedRepository) Load(ctx context.Context, key string) (*models.FeedSnapshot, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, feedKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get feed: %w", err)
	}

	var snapshot models.FeedSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		r.logger.Warn("discarding unreadable feed snapshot", zap.Error(err))
		return nil, appErrors.ErrCacheMiss
	}
	return &snapshot, nil
}

// Save stores the snapshot under key for ttl.
func (r *RedisFeedRepository) Save(ctx context.Context, key string, snapshot models.FeedSnapshot, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal feed snapshot: %w", err)
	}

	if err := r.client.Set(ctx, feedKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set feed: %w", err)
	}
	return nil
}

// Delete removes the snapshot stored under key.
func (r *RedisFeedRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, feedKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete feed: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RedisFeedRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
