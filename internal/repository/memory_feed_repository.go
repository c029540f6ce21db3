package repository

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type memoryFeedEntry struct {
	snapshot  models.FeedSnapshot
	expiresAt time.Time
}

// MemoryFeedRepository keeps feed snapshots in process memory. Entries expire lazily.
type MemoryFeedRepository struct {
	mu      sync.Mutex
	entries map[string]memoryFeedEntry
	now     func() time.Time
}

// NewMemoryFeedRepository constructs an empty in-memory feed repository.
func NewMemoryFeedRepository() *MemoryFeedRepository {
	return &MemoryFeedRepository{entries: make(map[string]memoryFeedEntry), now: time.Now}
}

// Load returns the snapshot stored for key or ErrCacheMiss.
func (r *MemoryFeedRepository) Load(_ context.Context, key string) (*models.FeedSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, key)
		return nil, appErrors.ErrCacheMiss
	}
	snapshot := entry.snapshot
	snapshot.Raw = append([]models.Notification(nil), entry.snapshot.Raw...)
	return &snapshot, nil
}

// Save stores a copy of the snapshot under key for ttl. A non-positive ttl never expires.
func (r *MemoryFeedRepository) Save(_ context.Context, key string, snapshot models.FeedSnapshot, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := memoryFeedEntry{snapshot: snapshot}
	entry.snapshot.Raw = append([]models.Notification(nil), snapshot.Raw...)
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries[key] = entry
	r.sweepLocked()
	return nil
}

// Delete removes the snapshot stored under key.
func (r *MemoryFeedRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}

// Sweep drops expired snapshots and reports how many were removed.
func (r *MemoryFeedRepository) Sweep(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(), nil
}

func (r *MemoryFeedRepository) sweepLocked() int {
	removed := 0
	now := r.now()
	for key, entry := range r.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}
