package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/services"
)

// WebSocketAuthMiddleware reads the token from the query string since
// browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		authenticate(c, auth, token)
	}
}
