package dto

import (
	"time"

	"github.com/avasseur/projecthub-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Avatar    *string `json:"avatar,omitempty"`
}

// AuthTokensDTO carries the credentials issued by login and refresh
type AuthTokensDTO struct {
	Token             string    `json:"token"`
	RefreshToken      string    `json:"refresh_token"`
	RefreshExpiration time.Time `json:"refresh_expiration"`
	User              UserDTO   `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}
}
