package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"github.com/avasseur/projecthub-api/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService handles profile and avatar updates for the authenticated
// user.
type AccountService struct {
	userRepo repository.UserRepository
	blobs    storage.BlobStore
}

// NewAccountService creates a new AccountService.
func NewAccountService(userRepo repository.UserRepository, blobs storage.BlobStore) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		blobs:    blobs,
	}
}

// UpdateProfileInput represents partial profile changes; nil fields are left
// untouched.
type UpdateProfileInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

// UpdateProfile applies profile changes to the user.
func (s *AccountService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != user.Email {
			if _, err := s.userRepo.FindByEmail(email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashed)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// UpdateAvatar stores the uploaded file through the blob store and records
// the returned reference on the user.
func (s *AccountService) UpdateAvatar(userID uint64, filename string, r io.Reader) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Avatar names are opaque; a random prefix avoids collisions between
	// users uploading identically named files.
	stored := fmt.Sprintf("%d-%s-%s", time.Now().Unix(), uuid.NewString()[:8], filename)

	reference, err := s.blobs.Save(stored, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	user.Avatar = &reference
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user avatar: %w", err)
	}

	return user, nil
}
