package repository

import (
	"github.com/avasseur/projecthub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(invitation *models.ProjectInvitation) error {
	return r.db.Create(invitation).Error
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(id uint64) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	if err := r.db.First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindPending finds the pending invitation for a (project, invited) pair
func (r *GormInvitationRepository) FindPending(projectID, invitedID uint64) (*models.ProjectInvitation, error) {
	var invitation models.ProjectInvitation
	err := r.db.
		Where("project_id = ? AND invited_id = ? AND status = ?",
			projectID, invitedID, models.InvitationPending).
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// Delete soft deletes an invitation
func (r *GormInvitationRepository) Delete(invitation *models.ProjectInvitation) error {
	return r.db.Delete(invitation).Error
}

// Accept flips a pending invitation to accepted and creates the membership in
// one transaction. The status guard in the UPDATE makes two racing accepts
// resolve to exactly one winner; the loser sees gorm.ErrRecordNotFound.
func (r *GormInvitationRepository) Accept(invitationID uint64, member *models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProjectInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
	})
}

// Refuse flips a pending invitation to refused; same race semantics as Accept.
func (r *GormInvitationRepository) Refuse(invitationID uint64) error {
	result := r.db.Model(&models.ProjectInvitation{}).
		Where("id = ? AND status = ?", invitationID, models.InvitationPending).
		Update("status", models.InvitationRefused)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
