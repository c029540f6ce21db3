package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

type notificationService interface {
	Filter(ctx context.Context, session models.Session, criterion models.NotificationFilterCriterion) (*models.FilteredView, error)
	Refresh(ctx context.Context, session models.Session) (*models.FilteredView, error)
	Latest(ctx context.Context, session models.Session, limit int) ([]models.Notification, error)
}

// notificationItem decorates a notification with its category badge label.
type notificationItem struct {
	models.Notification
	CategoryLabel string `json:"category_label"`
}

type filteredViewResponse struct {
	Items     []notificationItem                 `json:"items"`
	Criterion models.NotificationFilterCriterion `json:"criterion"`
	Total     int                                `json:"total"`
	FetchedAt string                             `json:"fetched_at,omitempty"`
}

// NotificationHandler exposes the notification feed endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler builds a new handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary Filter my notification feed
// @Description Applies the search text (title or content, case-insensitive) and the category to the session's feed.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search text"
// @Param category query string false "Category" Enums(ALL, EVENT, NEWS)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var query dto.NotificationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	criterion := models.NotificationFilterCriterion{SearchText: query.Search, Category: models.CategoryFilter(query.Category)}
	view, err := h.service.Filter(c.Request.Context(), sessionFromContext(c), criterion)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toFilteredViewResponse(view), nil)
}

// Refresh godoc
// @Summary Reload my notification feed
// @Description Fetches the notifications again. On failure the previous feed is kept.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /notifications/refresh [post]
func (h *NotificationHandler) Refresh(c *gin.Context) {
	view, err := h.service.Refresh(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toFilteredViewResponse(view), nil)
}

// Latest godoc
// @Summary Latest notices
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of notices (1-50)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /notifications/latest [get]
func (h *NotificationHandler) Latest(c *gin.Context) {
	var query dto.LatestNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "limit must be between 1 and 50"))
		return
	}
	items, err := h.service.Latest(c.Request.Context(), sessionFromContext(c), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decorate(items), nil)
}

func toFilteredViewResponse(view *models.FilteredView) filteredViewResponse {
	resp := filteredViewResponse{
		Items:     decorate(view.Items),
		Criterion: view.Criterion,
		Total:     view.Total,
	}
	if !view.FetchedAt.IsZero() {
		resp.FetchedAt = view.FetchedAt.Format(time.RFC3339)
	}
	return resp
}

func decorate(items []models.Notification) []notificationItem {
	out := make([]notificationItem, 0, len(items))
	for _, item := range items {
		out = append(out, notificationItem{Notification: item, CategoryLabel: service.CategoryLabel(item.Category)})
	}
	return out
}
