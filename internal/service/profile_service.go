package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type profileDirectory interface {
	FetchUserProfile(ctx context.Context, userID models.UserID, token string) (*models.UserProfile, error)
}

// ProfileService resolves the signed-in user's directory profile.
type ProfileService struct {
	directory profileDirectory
	logger    *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(directory profileDirectory, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{directory: directory, logger: logger}
}

// Get returns the profile of the session's user.
func (s *ProfileService) Get(ctx context.Context, session models.Session) (*models.UserProfile, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthenticated
	}
	profile, err := s.directory.FetchUserProfile(ctx, session.UserID, session.Token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user profile not found")
		}
		s.logger.Warn("profile fetch failed", zap.String("user_id", string(session.UserID)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "failed to load profile")
	}
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user profile not found")
	}
	return profile, nil
}
