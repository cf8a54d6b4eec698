package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/middleware"
)

// ListNotifications returns the caller's newest notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	notifs, err := h.svc.ListNotifications(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

// UnreadNotificationCount returns the unread badge count
func (h *Handlers) UnreadNotificationCount(c *gin.Context) {
	count, err := h.svc.UnreadNotificationCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationRead marks one notification as read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.svc.MarkNotificationRead(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// MarkAllNotificationsRead clears the unread badge
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.svc.MarkAllNotificationsRead(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
