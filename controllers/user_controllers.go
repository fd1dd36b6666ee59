package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

type UserController struct {
	Auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{Auth: auth}
}

// Register user baru
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		UserType string `json:"user_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Auth.Register(c.Request.Context(), req.Username, req.Password, models.Role(strings.ToLower(req.UserType)))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Token exchanges username and password for a bearer token. Accepts both a
// form post and a JSON body.
func (uc *UserController) Token(c *gin.Context) {
	var input struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	token, user, err := uc.Auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	if err := uc.Auth.Logout(c.Request.Context(), token); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}

// Status reports who the token belongs to.
func (uc *UserController) Status(c *gin.Context) {
	user, _ := middlewares.UserFrom(c)
	utils.RespondJSON(c, http.StatusOK, "Authenticated", gin.H{
		"authenticated": true,
		"user":          user,
	})
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	user, err := uc.Auth.GetUser(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User detail", user)
}
