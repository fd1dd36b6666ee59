package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GetNotifications
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	caller, _ := middlewares.CallerFrom(c)
	skip, limit := pageParams(c)

	notifs, err := nc.Notifications.List(c.Request.Context(), caller, skip, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

// GetUnreadNotifications
func (nc *NotificationController) GetUnreadNotifications(c *gin.Context) {
	caller, _ := middlewares.CallerFrom(c)

	notifs, err := nc.Notifications.ListUnread(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread notifications", notifs)
}

func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	caller, _ := middlewares.CallerFrom(c)

	count, err := nc.Notifications.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread count", gin.H{"count": count})
}

// MarkAsRead
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c, "notification_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	notif, err := nc.Notifications.MarkRead(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", notif)
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	caller, _ := middlewares.CallerFrom(c)

	updated, err := nc.Notifications.MarkAllRead(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}
