package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

// respondServiceError maps service errors onto HTTP status codes. Anything
// unknown is logged and reported as 500 without its details.
func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		utils.RespondError(c, http.StatusBadRequest, verr)
	case errors.As(err, &tooLarge):
		utils.RespondError(c, http.StatusRequestEntityTooLarge, errors.New("File too large"))
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, services.ErrUnauthenticated):
		utils.RespondError(c, http.StatusUnauthorized, err)
	default:
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", param))
		return 0, false
	}
	return uint(id), true
}

// pageParams reads skip and limit from the query. Missing or malformed values
// fall back to the service defaults.
func pageParams(c *gin.Context) (int, int) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return skip, limit
}
