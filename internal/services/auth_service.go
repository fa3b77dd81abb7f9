package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles registration, credential verification and token
// issuance.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user account.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Roles:        []string{models.RoleUser},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginResult carries the issued credentials.
type LoginResult struct {
	User                 *models.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         *models.RefreshToken
}

// Login verifies credentials and issues an access/refresh token pair. Unknown
// email and wrong password both fail with the same ErrInvalidCredentials so
// callers cannot enumerate accounts.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Refresh redeems a refresh token and issues a new token pair. The consumed
// token is deleted and its replacement created as one unit.
func (s *AuthService) Refresh(refreshTokenValue string) (*LoginResult, error) {
	if refreshTokenValue == "" {
		return nil, ErrInvalidRefreshToken
	}

	replacement, err := s.tokens.RedeemRefreshToken(refreshTokenValue)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(replacement.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	accessToken, expiresAt, err := s.tokens.MintAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:                 user,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         replacement,
	}, nil
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(refreshTokenValue string) error {
	return s.tokens.RevokeRefreshToken(refreshTokenValue)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UserIDFromClaims extracts the user ID carried in an access token subject.
func UserIDFromClaims(claims *AccessClaims) (uint64, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidAccessToken
	}
	return id, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	accessToken, expiresAt, err := s.tokens.MintAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:                 user,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         refreshToken,
	}, nil
}
