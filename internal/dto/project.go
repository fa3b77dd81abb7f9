package dto

import (
	"time"

	"github.com/avasseur/projecthub-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithRoleDTO represents a project with the caller's role
type ProjectWithRoleDTO struct {
	ProjectDTO
	Role models.ProjectRole `json:"role"`
}

// ProjectMemberDTO represents a member of a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDetailDTO represents a project with its members
type ProjectDetailDTO struct {
	ProjectDTO
	Members  []ProjectMemberDTO `json:"members"`
	YourRole models.ProjectRole `json:"your_role"`
}

// InvitationDTO represents a project invitation in API responses
type InvitationDTO struct {
	ID        uint64                  `json:"id"`
	ProjectID uint64                  `json:"project_id"`
	SenderID  uint64                  `json:"sender_id"`
	InvitedID uint64                  `json:"invited_id"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectWithRoleDTO converts a membership to a project-with-role DTO
func ToProjectWithRoleDTO(member models.ProjectMember) ProjectWithRoleDTO {
	return ProjectWithRoleDTO{
		ProjectDTO: ToProjectDTO(member.Project),
		Role:       member.Role,
	}
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.CreatedAt,
	}
}

// ToProjectDetailDTO converts a project with members to a detailed DTO
func ToProjectDetailDTO(project models.Project, members []models.ProjectMember, yourRole models.ProjectRole) ProjectDetailDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProjectMemberDTO(member)
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Members:    memberDTOs,
		YourRole:   yourRole,
	}
}

// ToInvitationDTO converts an invitation to DTO
func ToInvitationDTO(invitation models.ProjectInvitation) InvitationDTO {
	return InvitationDTO{
		ID:        invitation.ID,
		ProjectID: invitation.ProjectID,
		SenderID:  invitation.SenderID,
		InvitedID: invitation.InvitedID,
		Status:    invitation.Status,
		ExpiresAt: invitation.ExpiresAt,
	}
}
