package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("aggregate: %w", Clone(ErrNoClassMembership, ""))

	appErr := FromError(wrapped)

	require.NotNil(t, appErr)
	assert.Equal(t, "NO_CLASS_MEMBERSHIP", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	appErr := FromError(cause)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("boom"), ErrFetch.Code, ErrFetch.Status, "notifications unavailable")

	assert.True(t, Is(err, ErrFetch))
	assert.False(t, Is(err, ErrPartialFetchFailure))
	assert.False(t, Is(nil, ErrFetch))
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrValidation, "category must be ALL, EVENT or NEWS")

	assert.Equal(t, "category must be ALL, EVENT or NEWS", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}
