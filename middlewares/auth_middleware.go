package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUser   = "user"
	ContextCaller = "caller"
	ContextRole   = "role"
	ContextToken  = "token"
)

func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}

		// Validasi format token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid authorization format"))
			c.Abort()
			return
		}

		authenticate(c, auth, strings.TrimPrefix(authHeader, "Bearer "))
	}
}

// authenticate resolves the token and stores the user and caller on the
// context, or aborts with 401.
func authenticate(c *gin.Context, auth *services.AuthService, token string) {
	user, caller, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, services.ErrUnauthenticated) {
			utils.ErrorLogger.Errorf("Error authenticating request: %v", err)
		}
		utils.RespondError(c, http.StatusUnauthorized, services.ErrUnauthenticated)
		c.Abort()
		return
	}

	c.Set(ContextUser, user)
	c.Set(ContextCaller, caller)
	c.Set(ContextRole, string(user.Role))
	c.Set(ContextToken, token)
	c.Next()
}

// CallerFrom returns the caller stored by AuthMiddleware.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return nil, false
	}
	caller, ok := v.(services.Caller)
	return caller, ok
}

func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
