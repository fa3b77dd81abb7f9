package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avasseur/projecthub-api/internal/config"
	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/dto"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name" binding:"required,max=100"`
		LastName  string `json:"last_name" binding:"required,max=100"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and issues an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, toAuthTokensDTO(result))
}

// Refresh rotates the refresh token: the presented one is consumed and a new
// access/refresh pair is returned. The token is read from the refresh cookie
// when enabled, with a JSON body fallback.
func (h *AuthHandler) Refresh(c *gin.Context) {
	value := h.refreshTokenFromRequest(c)
	if value == "" {
		apierrors.BadRequest(c, "No refresh token provided")
		return
	}

	result, err := h.authService.Refresh(value)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, toAuthTokensDTO(result))
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	value := h.refreshTokenFromRequest(c)

	if err := h.authService.Logout(value); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func (h *AuthHandler) refreshTokenFromRequest(c *gin.Context) string {
	if h.cfg.RefreshCookieEnabled {
		if value, err := c.Cookie(h.cfg.RefreshCookieName); err == nil && value != "" {
			return value
		}
	}

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token *models.RefreshToken) {
	if !h.cfg.RefreshCookieEnabled {
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.RefreshCookieName,
		Value:    token.Token,
		Path:     h.cfg.RefreshCookiePath,
		Domain:   h.cfg.RefreshCookieDomain,
		Expires:  token.ExpiresAt,
		Secure:   h.cfg.RefreshCookieSecure,
		HttpOnly: h.cfg.RefreshCookieHTTPOnly,
		SameSite: h.cfg.RefreshCookieSameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	if !h.cfg.RefreshCookieEnabled {
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.RefreshCookieName,
		Value:    "",
		Path:     h.cfg.RefreshCookiePath,
		Domain:   h.cfg.RefreshCookieDomain,
		MaxAge:   -1,
		Secure:   h.cfg.RefreshCookieSecure,
		HttpOnly: h.cfg.RefreshCookieHTTPOnly,
		SameSite: h.cfg.RefreshCookieSameSite,
	})
}

func toAuthTokensDTO(result *services.LoginResult) dto.AuthTokensDTO {
	return dto.AuthTokensDTO{
		Token:             result.AccessToken,
		RefreshToken:      result.RefreshToken.Token,
		RefreshExpiration: result.RefreshToken.ExpiresAt,
		User:              dto.ToUserDTO(*result.User),
	}
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidRefreshToken):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
