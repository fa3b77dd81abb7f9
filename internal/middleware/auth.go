package middleware

import (
	"strings"

	"github.com/avasseur/projecthub-api/internal/constants"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RequireAuth validates the Bearer access token and stores the caller's user
// ID in the request context.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired access token")
			c.Abort()
			return
		}

		userID, err := services.UserIDFromClaims(claims)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired access token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
