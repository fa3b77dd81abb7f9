package repository

import (
	"github.com/avasseur/projecthub-api/internal/models"
	"gorm.io/gorm"
)

// GormRefreshTokenRepository is a GORM implementation of RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

// Create persists a new refresh token
func (r *GormRefreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

// FindByToken finds a refresh token by its opaque value
func (r *GormRefreshTokenRepository) FindByToken(value string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.Where("token = ?", value).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Rotate enforces single use: the delete and the insert commit together, and
// a rotation that finds the old row already gone (a concurrent refresh won
// the race) fails with gorm.ErrRecordNotFound without issuing anything.
func (r *GormRefreshTokenRepository) Rotate(oldID uint64, newToken *models.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.RefreshToken{}, oldID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(newToken).Error
	})
}

// DeleteByToken removes a token by value; missing tokens are not an error
func (r *GormRefreshTokenRepository) DeleteByToken(value string) error {
	return r.db.Where("token = ?", value).Delete(&models.RefreshToken{}).Error
}

// DeleteByID removes a token by ID
func (r *GormRefreshTokenRepository) DeleteByID(id uint64) error {
	return r.db.Delete(&models.RefreshToken{}, id).Error
}
