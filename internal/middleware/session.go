package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the caller's session.
const ContextSessionKey = "currentSession"

// UserIDHeader carries the user id for clients holding an opaque token.
const UserIDHeader = "X-User-ID"

// SessionConfig selects how bearer tokens are checked.
type SessionConfig struct {
	// Secret verifies HS256 access tokens. When empty, tokens are forwarded unverified and the
	// academic directory authorises every call; only then is UserIDHeader honoured.
	Secret string
}

// Session requires a bearer token and a user id and stores both in the context.
func Session(cfg SessionConfig) gin.HandlerFunc {
	parser := jwt.NewParser()
	secret := []byte(cfg.Secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid authorization header"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		session := models.Session{Token: token}
		if len(secret) > 0 {
			userID, err := verifiedUserID(secret, token)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			session.UserID = userID
		} else {
			session.UserID = unverifiedUserID(parser, token)
			if session.UserID == "" {
				session.UserID = models.UserID(strings.TrimSpace(c.GetHeader(UserIDHeader)))
			}
		}
		if !session.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "missing user id"))
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFromContext returns the session stored by Session.
func SessionFromContext(c *gin.Context) (models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return models.Session{}, false
	}
	session, ok := value.(models.Session)
	return session, ok
}

func verifiedUserID(secret []byte, token string) (models.UserID, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid token")
	}
	if !parsed.Valid {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "invalid token claims")
	}
	return claimsUserID(claims), nil
}

func unverifiedUserID(parser *jwt.Parser, token string) models.UserID {
	claims := &models.SessionClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	return claimsUserID(claims)
}

func claimsUserID(claims *models.SessionClaims) models.UserID {
	if claims.UserID != "" {
		return models.UserID(claims.UserID)
	}
	return models.UserID(claims.Subject)
}
