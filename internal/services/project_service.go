package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/policy"
	"github.com/avasseur/projecthub-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvalidProjectName = errors.New("project name cannot be empty")
	ErrMemberNotFound     = errors.New("user is not a member of the project")
	ErrAlreadyMember      = errors.New("user is already a member of the project")
	ErrInvalidRole        = errors.New("unknown project role")
	ErrLastManager        = errors.New("a project must keep at least one manager")
	ErrNotProjectManager  = errors.New("only a project manager can perform this action")
)

// ProjectService provides business logic for projects and their memberships.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	CreatorID   uint64
}

// CreateProject creates a project; the creator becomes its manager in the
// same transaction.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidProjectName
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
	}
	manager := &models.ProjectMember{
		UserID: input.CreatorID,
		Role:   models.RoleManager,
	}

	if err := s.projectRepo.CreateWithManager(project, manager); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// GetProject returns a project by ID.
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjectsForUser returns the memberships (with projects) of a user.
func (s *ProjectService) ListProjectsForUser(userID uint64) ([]models.ProjectMember, error) {
	memberships, err := s.projectRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return memberships, nil
}

// ListMembers returns all members of a project.
func (s *ProjectService) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return members, nil
}

// DeleteProject soft deletes a project.
func (s *ProjectService) DeleteProject(projectID uint64) error {
	if _, err := s.GetProject(projectID); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// AddMember adds a user to a project with the given role.
func (s *ProjectService) AddMember(projectID, userID uint64, role models.ProjectRole) (*models.ProjectMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from a project. The member's tasks and
// invitations are left untouched. Removing the last manager is refused.
func (s *ProjectService) RemoveMember(projectID, userID uint64) error {
	member, err := s.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find member: %w", err)
	}

	if member.IsManager() {
		count, err := s.projectRepo.CountManagers(projectID)
		if err != nil {
			return fmt.Errorf("failed to count managers: %w", err)
		}
		if count <= 1 {
			return ErrLastManager
		}
	}

	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// Leave removes the caller's own membership; same last-manager rule as
// RemoveMember.
func (s *ProjectService) Leave(projectID, userID uint64) error {
	return s.RemoveMember(projectID, userID)
}

// IsMember reports whether a user belongs to a project.
func (s *ProjectService) IsMember(projectID, userID uint64) (bool, error) {
	_, err := s.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify membership: %w", err)
	}
	return true, nil
}

// RoleOf returns the role a user holds in a project, or ErrMemberNotFound.
func (s *ProjectService) RoleOf(projectID, userID uint64) (models.ProjectRole, error) {
	member, err := s.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrMemberNotFound
		}
		return "", fmt.Errorf("failed to find member: %w", err)
	}
	return member.Role, nil
}

// RequireManager verifies that the user may manage members of the project.
func (s *ProjectService) RequireManager(projectID, userID uint64) error {
	role, err := s.RoleOf(projectID, userID)
	if err != nil {
		return err
	}
	if !policy.CanManageMembers(role) {
		return ErrNotProjectManager
	}
	return nil
}
