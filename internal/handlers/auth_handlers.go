package handlers

import (
	"net/http"

	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterUser creates a back-office account. Admin only.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if !bindJSON(c, "RegisterUser", &req) {
		return
	}

	user, err := h.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "RegisterUser", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser exchanges credentials for an access token.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, "LoginUser", &req) {
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "LoginUser", err)
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "missing user id in context"))
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), *userID)
	if err != nil {
		respondServiceError(c, "GetCurrentUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
