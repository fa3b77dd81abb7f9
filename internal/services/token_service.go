package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/avasseur/projecthub-api/internal/config"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AccessClaims are the JWT claims carried by access tokens.
type AccessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies access tokens and owns the single-use
// refresh token lifecycle. All knobs come from the immutable config struct
// handed in at construction.
type TokenService struct {
	tokenRepo       repository.RefreshTokenRepository
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(tokenRepo repository.RefreshTokenRepository, cfg *config.Config) *TokenService {
	return &TokenService{
		tokenRepo:       tokenRepo,
		secret:          []byte(cfg.JWTSecret),
		issuer:          cfg.JWTIssuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// MintAccessToken signs a short-lived JWT for the user.
func (s *TokenService) MintAccessToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTokenTTL)

	claims := AccessClaims{
		Roles: user.RoleList(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken parses and validates a JWT, returning its claims.
func (s *TokenService) VerifyAccessToken(value string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// IssueRefreshToken persists a fresh opaque refresh token for the user.
func (s *TokenService) IssueRefreshToken(userID uint64) (*models.RefreshToken, error) {
	token := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}

	if err := s.tokenRepo.Create(token); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return token, nil
}

// RedeemRefreshToken consumes a refresh token and returns its replacement.
// A token that is unknown, expired or already consumed fails with
// ErrInvalidRefreshToken; the delete-and-insert runs in one transaction so a
// concurrent redemption of the same value yields exactly one winner.
func (s *TokenService) RedeemRefreshToken(value string) (*models.RefreshToken, error) {
	old, err := s.tokenRepo.FindByToken(value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if old.Expired(time.Now()) {
		// Lazy cleanup; an expired token is never redeemable.
		if err := s.tokenRepo.DeleteByID(old.ID); err != nil {
			return nil, fmt.Errorf("failed to delete expired refresh token: %w", err)
		}
		return nil, ErrInvalidRefreshToken
	}

	replacement := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    old.UserID,
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}

	if err := s.tokenRepo.Rotate(old.ID, replacement); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return replacement, nil
}

// RevokeRefreshToken drops a refresh token, e.g. on logout. Unknown values
// are ignored.
func (s *TokenService) RevokeRefreshToken(value string) error {
	if value == "" {
		return nil
	}
	if err := s.tokenRepo.DeleteByToken(value); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshTokenTTL exposes the configured TTL for cookie expiry.
func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}
