package rest

import (
	"net/http"

	"zapas-be/internal/logger"
	"zapas-be/internal/user"
	"zapas-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users user.Service
}

type loginResponse struct {
	AccessToken string     `json:"accessToken"`
	User        *user.User `json:"user"`
}

type registerResponse struct {
	User *user.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in user.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		abort(c, err)
		return
	}

	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{User: u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in user.LoginInput
	if err := bindJSON(c, &in); err != nil {
		abort(c, err)
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), in)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{AccessToken: token, User: u})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	u, err := h.users.GetProfile(ctx, userID)
	if err != nil {
		logger.FromCtx(ctx).Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: u})
}
