package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
)

// sessionFromContext returns the caller's session or a zero session, which services reject as unauthenticated.
func sessionFromContext(c *gin.Context) models.Session {
	session, _ := middleware.SessionFromContext(c)
	return session
}
