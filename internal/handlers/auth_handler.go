package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/gin-gonic/gin"
)

// AuthContext is the signed-in state the local API exposes.
type AuthContext interface {
	IsInitialized() bool
	IsAdmin() bool
	User() *models.User
	Login(ctx context.Context, token string, user *models.User) error
	Logout(ctx context.Context) error
}

type LoginRequest struct {
	Token string       `json:"token" binding:"required"`
	User  *models.User `json:"user,omitempty"`
}

type MeResponse struct {
	Initialized bool         `json:"initialized"`
	Admin       bool         `json:"admin"`
	User        *models.User `json:"user,omitempty"`
}

type AuthHandler struct {
	BaseHandler
	auth AuthContext
}

func NewAuthHandler(auth AuthContext, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// Me reports the session-context signals
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, MeResponse{
		Initialized: h.auth.IsInitialized(),
		Admin:       h.auth.IsAdmin(),
		User:        h.auth.User(),
	})
}

// Login stores the bearer token used for backend calls
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.auth.Login(c.Request.Context(), req.Token, req.User); err != nil {
		h.RespondWithError(c, http.StatusUnauthorized, "Login failed", err, err.Error())
		return
	}
	h.Me(c)
}

// Logout clears the stored credentials
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Logout failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
