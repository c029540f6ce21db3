package models

import "github.com/golang-jwt/jwt/v5"

// Session carries the caller's bearer token and user identifier into core operations.
type Session struct {
	Token  string
	UserID UserID
}

// Valid reports whether both the token and the user id are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.UserID != ""
}

// SessionClaims is the subset of the directory-issued access token read by the gateway.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
