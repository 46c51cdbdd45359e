// internal/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// respondAuthError localizes the well-known login and registration failures.
func respondAuthError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrUserDisabled):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthUserDisabled))
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))
	default:
		respondError(c, err)
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthRegisterSuccess), authResponse)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLoginSuccess), authResponse)
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}
