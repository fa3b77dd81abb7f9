package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvitationExists    = errors.New("a pending invitation already exists for this user")
	ErrInvitationExpired   = errors.New("the invitation has expired")
	ErrNotInvitedUser      = errors.New("the invitation is addressed to another user")
	ErrCannotInviteSelf    = errors.New("cannot invite yourself")
	ErrInvitationWrongProj = errors.New("invitation does not belong to this project")
)

// InvitationService drives the invitation state machine:
// PENDING -> ACCEPTED | REFUSED, with expired pending invitations deleted
// lazily when they are next touched.
type InvitationService struct {
	invitationRepo repository.InvitationRepository
	projectRepo    repository.ProjectRepository
	userRepo       repository.UserRepository
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
	}
}

// Invite creates a pending invitation for invitedID to join projectID,
// expiring after the configured TTL. An existing pending invitation for the
// same pair is a conflict; an expired one is discarded and replaced.
func (s *InvitationService) Invite(projectID, senderID, invitedID uint64) (*models.ProjectInvitation, error) {
	if senderID == invitedID {
		return nil, ErrCannotInviteSelf
	}

	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if _, err := s.userRepo.FindByID(invitedID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find invited user: %w", err)
	}

	if existing, err := s.invitationRepo.FindPending(projectID, invitedID); err == nil {
		if !existing.Expired(time.Now()) {
			return nil, ErrInvitationExists
		}
		if err := s.invitationRepo.Delete(existing); err != nil {
			return nil, fmt.Errorf("failed to discard expired invitation: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending invitation: %w", err)
	}

	invitation := &models.ProjectInvitation{
		ProjectID: projectID,
		SenderID:  senderID,
		InvitedID: invitedID,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().AddDate(0, 0, constants.InvitationTTLDays),
	}

	if err := s.invitationRepo.Create(invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return invitation, nil
}

// Accept redeems a pending invitation: the acting user must be the invited
// one, the invitation must still be pending and unexpired. On success the
// status flips to ACCEPTED and a CONTRIBUTOR membership is created in the
// same transaction.
func (s *InvitationService) Accept(projectID, invitationID, actorID uint64) (*models.ProjectMember, error) {
	invitation, err := s.load(projectID, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.InvitedID != actorID {
		return nil, ErrNotInvitedUser
	}

	if invitation.Expired(time.Now()) {
		if err := s.invitationRepo.Delete(invitation); err != nil {
			return nil, fmt.Errorf("failed to delete expired invitation: %w", err)
		}
		return nil, ErrInvitationExpired
	}

	member := &models.ProjectMember{
		ProjectID: invitation.ProjectID,
		UserID:    invitation.InvitedID,
		Role:      models.RoleContributor,
	}

	if err := s.invitationRepo.Accept(invitation.ID, member); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with another accept/refuse, or already terminal.
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	return member, nil
}

// Refuse flips a pending invitation to REFUSED. Only the invited user may
// refuse; expired invitations are discarded with the same semantics as
// Accept.
func (s *InvitationService) Refuse(projectID, invitationID, actorID uint64) error {
	invitation, err := s.load(projectID, invitationID)
	if err != nil {
		return err
	}

	if invitation.InvitedID != actorID {
		return ErrNotInvitedUser
	}

	if invitation.Expired(time.Now()) {
		if err := s.invitationRepo.Delete(invitation); err != nil {
			return fmt.Errorf("failed to delete expired invitation: %w", err)
		}
		return ErrInvitationExpired
	}

	if err := s.invitationRepo.Refuse(invitation.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("failed to refuse invitation: %w", err)
	}

	return nil
}

func (s *InvitationService) load(projectID, invitationID uint64) (*models.ProjectInvitation, error) {
	invitation, err := s.invitationRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if invitation.ProjectID != projectID {
		return nil, ErrInvitationWrongProj
	}
	if invitation.Status != models.InvitationPending {
		return nil, ErrInvitationNotFound
	}

	return invitation, nil
}
