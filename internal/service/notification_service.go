package service

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

const (
	defaultFeedSessionTTL = 30 * time.Minute
	defaultLatestLimit    = 2
	maxLatestLimit        = 50
)

type feedStore interface {
	Load(ctx context.Context, key string) (*models.FeedSnapshot, error)
	Save(ctx context.Context, key string, snapshot models.FeedSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NotificationServiceConfig tunes per-session feed behaviour.
type NotificationServiceConfig struct {
	SessionTTL  time.Duration
	LatestLimit int
}

// NotificationService keeps one notification feed per session view.
type NotificationService struct {
	fetcher   notificationFetcher
	store     feedStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       NotificationServiceConfig
}

// NewNotificationService constructs the service.
func NewNotificationService(fetcher notificationFetcher, store feedStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultFeedSessionTTL
	}
	if cfg.LatestLimit <= 0 {
		cfg.LatestLimit = defaultLatestLimit
	}
	return &NotificationService{fetcher: fetcher, store: store, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Filter applies criterion to the session's feed and returns the resulting view.
// The first access of a session view fetches the raw list.
func (s *NotificationService) Filter(ctx context.Context, session models.Session, criterion models.NotificationFilterCriterion) (*models.FilteredView, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}
	criterion = NormalizeCriterion(criterion)
	if err := s.validator.Struct(criterion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "category must be one of ALL, EVENT, NEWS")
	}

	key := FeedKey(session)
	feed, err := s.feed(ctx, session, key)
	if err != nil {
		return nil, err
	}
	view := feed.SetCriterion(criterion)
	s.save(ctx, key, feed)
	return &view, nil
}

// Refresh reloads the session's raw list keeping the active criterion. On failure the stored
// feed is left as it was and FETCH_ERROR is returned.
func (s *NotificationService) Refresh(ctx context.Context, session models.Session) (*models.FilteredView, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}
	key := FeedKey(session)
	feed := s.lookup(ctx, key)
	if feed == nil {
		feed = NewNotificationFeed(s.fetcher)
	}
	if err := feed.Refresh(ctx, session); err != nil {
		s.logger.Warn("notification refresh failed", zap.String("user_id", string(session.UserID)), zap.Error(err))
		return nil, err
	}
	s.save(ctx, key, feed)
	view := feed.View()
	return &view, nil
}

// Latest returns the first limit notifications of the session's raw list in server order.
// A non-positive limit uses the configured default.
func (s *NotificationService) Latest(ctx context.Context, session models.Session, limit int) ([]models.Notification, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = s.cfg.LatestLimit
	}
	if limit > maxLatestLimit {
		limit = maxLatestLimit
	}
	feed, err := s.feed(ctx, session, FeedKey(session))
	if err != nil {
		return nil, err
	}
	return feed.Latest(limit), nil
}

// Discard drops the stored feed of a session view.
func (s *NotificationService) Discard(ctx context.Context, session models.Session) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, FeedKey(session))
}

func (s *NotificationService) feed(ctx context.Context, session models.Session, key string) (*NotificationFeed, error) {
	if feed := s.lookup(ctx, key); feed != nil {
		return feed, nil
	}
	feed := NewNotificationFeed(s.fetcher)
	if err := feed.Refresh(ctx, session); err != nil {
		s.logger.Warn("notification fetch failed", zap.String("user_id", string(session.UserID)), zap.Error(err))
		return nil, err
	}
	return feed, nil
}

func (s *NotificationService) lookup(ctx context.Context, key string) *NotificationFeed {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed store load failed", zap.Error(err))
		}
		s.metrics.RecordFeedLookup(false)
		return nil
	}
	s.metrics.RecordFeedLookup(true)
	return RestoreFeed(s.fetcher, *snapshot)
}

func (s *NotificationService) save(ctx context.Context, key string, feed *NotificationFeed) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, key, feed.Snapshot(), s.cfg.SessionTTL); err != nil {
		s.logger.Warn("feed store save failed", zap.Error(err))
	}
}

// FeedKey derives the store key of a session view. The bearer token is never stored in clear.
func FeedKey(session models.Session) string {
	sum := blake2b.Sum256([]byte(string(session.UserID) + "\x00" + session.Token))
	return hex.EncodeToString(sum[:])
}
