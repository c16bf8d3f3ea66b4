package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
	"github.com/HuskeLuv/SFC-sub003/internal/services"
)

// NotificationHandler serves the caller's own notifications. They are not
// affected by the acting context.
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns notifications, newest first
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    CookieAuth
// @Param       unread    query bool false "Only unread"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Notification]
// @Router      /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.notificationService.ListNotifications(identity.ID, c.Query("unread") == "true", page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkRead marks a notification as read
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    CookieAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.notificationService.MarkRead(identity.ID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notification})
}
