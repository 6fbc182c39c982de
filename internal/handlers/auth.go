// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, err)
		return
	}

	authResponse, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	// Sellers get no token until an admin approves the license
	if authResponse.PendingApproval {
		utils.CreatedResponse(c, gin.H{
			"message":          i18n.T(lang, i18n.KeyAuthRegisterSuccess),
			"user":             authResponse.User,
			"pending_approval": true,
		})
		return
	}

	utils.CreatedResponse(c, authResponse)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, err)
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, authResponse)
}

// GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.authService.Profile(c.Request.Context(), user.ID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, profile)
}
