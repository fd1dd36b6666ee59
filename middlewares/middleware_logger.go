package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/school-journal/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
		})
		if user, ok := UserFrom(c); ok {
			entry = entry.WithField("user_id", user.ID)
		}
		entry.Infof("%s %s", c.Request.Method, path)
	}
}
