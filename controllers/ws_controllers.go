package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/realtime"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

type NotificationSocket struct {
	Hub           *realtime.Hub
	Notifications *services.NotificationService
	upgrader      websocket.Upgrader
}

// NewNotificationSocket accepts handshakes from allowedOrigins, or from any
// origin when the list is empty or "*".
func NewNotificationSocket(hub *realtime.Hub, notifications *services.NotificationService, allowedOrigins []string) *NotificationSocket {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	return &NotificationSocket{
		Hub:           hub,
		Notifications: notifications,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Handle -> endpoint WebSocket untuk notifikasi siswa
func (ns *NotificationSocket) Handle(c *gin.Context) {
	caller, ok := middlewares.CallerFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	student, ok := caller.(services.Student)
	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := ns.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	ns.Hub.RegisterClient(ws, student.ID)

	// kirim jumlah unread saat pertama terhubung
	if count, err := ns.Notifications.UnreadCount(c.Request.Context(), student); err == nil {
		ns.Hub.UnreadCountChanged(student.ID, count)
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	ns.Hub.UnregisterClient(ws)
}
