package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

func TestProfileServiceGet(t *testing.T) {
	dir := &fakeDirectory{profile: &models.UserProfile{UserID: "u1", Name: "Ana"}}
	svc := NewProfileService(dir, nil)

	profile, err := svc.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, []string{"tok"}, dir.tokens)
}

func TestProfileServiceErrors(t *testing.T) {
	svc := NewProfileService(&fakeDirectory{profileErr: &repository.UpstreamError{Resource: repository.ResourceUserProfile, Status: http.StatusNotFound}}, nil)
	_, err := svc.Get(context.Background(), testSession)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	svc = NewProfileService(&fakeDirectory{profileErr: errors.New("reset by peer")}, nil)
	_, err = svc.Get(context.Background(), testSession)
	assert.True(t, appErrors.Is(err, appErrors.ErrFetch))

	_, err = svc.Get(context.Background(), models.Session{Token: "tok"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthenticated))
}
