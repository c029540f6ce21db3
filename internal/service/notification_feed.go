package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type notificationFetcher interface {
	FetchNotifications(ctx context.Context, token string) ([]models.Notification, error)
}

// NormalizeCriterion upper-cases the category and defaults it to ALL. Search text is kept verbatim.
func NormalizeCriterion(criterion models.NotificationFilterCriterion) models.NotificationFilterCriterion {
	category := models.CategoryFilter(strings.ToUpper(strings.TrimSpace(string(criterion.Category))))
	if category == "" {
		category = models.CategoryAll
	}
	criterion.Category = category
	return criterion
}

// ComputeFilteredView returns the notifications matching criterion in source order.
// A notification matches when its title or content contains the search text, ignoring case,
// and its category equals the selected one. Empty search text and ALL disable their predicate.
func ComputeFilteredView(raw []models.Notification, criterion models.NotificationFilterCriterion) []models.Notification {
	criterion = NormalizeCriterion(criterion)
	fold := cases.Fold()
	needle := fold.String(criterion.SearchText)

	filtered := make([]models.Notification, 0, len(raw))
	for _, item := range raw {
		if needle != "" && !strings.Contains(fold.String(item.Title), needle) && !strings.Contains(fold.String(item.Content), needle) {
			continue
		}
		if criterion.Category != models.CategoryAll && models.CategoryFilter(item.Category) != criterion.Category {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// NotificationFeed holds the raw notification list of one session view together with the
// active criterion and the derived view. The view is recomputed on every change.
type NotificationFeed struct {
	fetcher notificationFetcher
	now     func() time.Time

	mu        sync.RWMutex
	raw       []models.Notification
	criterion models.NotificationFilterCriterion
	view      []models.Notification
	fetchedAt time.Time
}

// NewNotificationFeed creates an empty feed with the ALL criterion.
func NewNotificationFeed(fetcher notificationFetcher) *NotificationFeed {
	return RestoreFeed(fetcher, models.FeedSnapshot{})
}

// RestoreFeed rebuilds a feed from a stored snapshot.
func RestoreFeed(fetcher notificationFetcher, snapshot models.FeedSnapshot) *NotificationFeed {
	feed := &NotificationFeed{
		fetcher:   fetcher,
		now:       time.Now,
		raw:       append([]models.Notification(nil), snapshot.Raw...),
		criterion: NormalizeCriterion(snapshot.Criterion),
		fetchedAt: snapshot.FetchedAt,
	}
	feed.view = ComputeFilteredView(feed.raw, feed.criterion)
	return feed
}

// SetCriterion replaces the criterion and returns the recomputed view.
func (f *NotificationFeed) SetCriterion(criterion models.NotificationFilterCriterion) models.FilteredView {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criterion = NormalizeCriterion(criterion)
	f.view = ComputeFilteredView(f.raw, f.criterion)
	return f.viewLocked()
}

// Refresh replaces the raw list from the directory. On failure the previous raw list
// and view are left untouched and FETCH_ERROR is returned.
func (f *NotificationFeed) Refresh(ctx context.Context, session models.Session) error {
	if !session.Valid() {
		return appErrors.ErrUnauthenticated
	}
	raw, err := f.fetcher.FetchNotifications(ctx, session.Token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "failed to load notifications")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = append([]models.Notification(nil), raw...)
	f.view = ComputeFilteredView(f.raw, f.criterion)
	f.fetchedAt = f.now().UTC()
	return nil
}

// View returns the current filtered view.
func (f *NotificationFeed) View() models.FilteredView {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.viewLocked()
}

// Latest returns up to n notifications from the raw list in server order.
func (f *NotificationFeed) Latest(n int) []models.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n > len(f.raw) {
		n = len(f.raw)
	}
	if n < 0 {
		n = 0
	}
	return append([]models.Notification{}, f.raw[:n]...)
}

// Loaded reports whether the feed has completed at least one fetch.
func (f *NotificationFeed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.fetchedAt.IsZero()
}

// Snapshot captures the feed state for storage.
func (f *NotificationFeed) Snapshot() models.FeedSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return models.FeedSnapshot{
		Raw:       append([]models.Notification{}, f.raw...),
		Criterion: f.criterion,
		FetchedAt: f.fetchedAt,
	}
}

func (f *NotificationFeed) viewLocked() models.FilteredView {
	items := append([]models.Notification{}, f.view...)
	return models.FilteredView{
		Items:     items,
		Criterion: f.criterion,
		Total:     len(items),
		FetchedAt: f.fetchedAt,
	}
}
