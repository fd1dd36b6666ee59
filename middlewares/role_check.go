package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/utils"
)

// RoleCheck lets the request through only for the given role. Must run after
// AuthMiddleware.
func RoleCheck(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if userRole != string(role) {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", role))
			c.Abort()
			return
		}

		c.Next()
	}
}

func RequireTeacher() gin.HandlerFunc { return RoleCheck(models.RoleTeacher) }

func RequireStudent() gin.HandlerFunc { return RoleCheck(models.RoleStudent) }
