package handlers

import (
	"errors"
	"net/http"

	"github.com/avasseur/projecthub-api/internal/dto"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/gin-gonic/gin"
)

// maxAvatarSize caps avatar uploads at 5 MiB.
const maxAvatarSize = 5 << 20

// AccountHandler serves the authenticated user's own profile.
type AccountHandler struct {
	accountService *services.AccountService
	authService    *services.AuthService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *services.AccountService, authService *services.AuthService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		authService:    authService,
	}
}

// GetProfile returns the caller's profile.
func (h *AccountHandler) GetProfile(c *gin.Context) {
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

// UpdateProfile applies partial changes to the caller's profile.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Email     *string `json:"email" binding:"omitempty,email"`
		Password  *string `json:"password"`
		FirstName *string `json:"first_name" binding:"omitempty,max=100"`
		LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.accountService.UpdateProfile(userID, services.UpdateProfileInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateAvatar stores an uploaded avatar image for the caller.
func (h *AccountHandler) UpdateAvatar(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		apierrors.BadRequest(c, "No avatar file provided")
		return
	}
	if fileHeader.Size > maxAvatarSize {
		apierrors.BadRequest(c, "Avatar file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read avatar file")
		return
	}
	defer file.Close()

	user, err := h.accountService.UpdateAvatar(userID, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to store avatar")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
