package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

func sessionRouter(captured *models.Session) *gin.Engine {
	return sessionRouterWith(SessionConfig{}, captured)
}

func sessionRouterWith(cfg SessionConfig, captured *models.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Session(cfg), func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if ok {
			*captured = session
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func signedToken(t *testing.T, claims jwt.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("directory-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionReadsUserIDClaim(t *testing.T) {
	var captured models.Session
	r := sessionRouter(&captured)
	token := signedToken(t, &models.SessionClaims{UserID: "u42"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(UserIDHeader, "ignored")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.UserID("u42"), captured.UserID)
	assert.Equal(t, token, captured.Token)
}

func TestSessionFallsBackToSubject(t *testing.T) {
	var captured models.Session
	r := sessionRouter(&captured)
	token := signedToken(t, jwt.RegisteredClaims{Subject: "u7"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.UserID("u7"), captured.UserID)
}

func TestSessionOpaqueTokenUsesHeader(t *testing.T) {
	var captured models.Session
	r := sessionRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer opaque-token")
	req.Header.Set(UserIDHeader, "u1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.Session{Token: "opaque-token", UserID: "u1"}, captured)
}

func TestSessionRejectsMissingParts(t *testing.T) {
	cases := []struct {
		name   string
		auth   string
		userID string
	}{
		{name: "no header", userID: "u1"},
		{name: "wrong scheme", auth: "Basic abc", userID: "u1"},
		{name: "empty token", auth: "Bearer  ", userID: "u1"},
		{name: "no user id", auth: "Bearer opaque"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var captured models.Session
			r := sessionRouter(&captured)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.userID != "" {
				req.Header.Set(UserIDHeader, tc.userID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHENTICATED", body.Error.Code)
			assert.Equal(t, models.Session{}, captured)
		})
	}
}

const unsignedToken = "eyJhbGciOiJub25lIn0.eyJ1c2VyX2lkIjoidmljdGltLTQyIn0."

func TestSessionVerifiedAcceptsSignedToken(t *testing.T) {
	var captured models.Session
	r := sessionRouterWith(SessionConfig{Secret: "directory-secret"}, &captured)
	token := signedToken(t, &models.SessionClaims{UserID: "u42"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(UserIDHeader, "u99")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.UserID("u42"), captured.UserID)
}

func TestSessionVerifiedRejectsUntrustedTokens(t *testing.T) {
	expired := signedToken(t, &models.SessionClaims{
		UserID:           "u42",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.SessionClaims{UserID: "u42"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		userID string
	}{
		{name: "unsigned alg none", token: unsignedToken},
		{name: "opaque token with user header", token: "garbage", userID: "victim-99"},
		{name: "wrong secret", token: otherKey},
		{name: "expired", token: expired},
		{name: "signed without user id", token: signedToken(t, &models.SessionClaims{})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var captured models.Session
			r := sessionRouterWith(SessionConfig{Secret: "directory-secret"}, &captured)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			if tc.userID != "" {
				req.Header.Set(UserIDHeader, tc.userID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, models.Session{}, captured)
		})
	}
}
