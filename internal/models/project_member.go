package models

import "time"

type ProjectRole string

const (
	RoleManager     ProjectRole = "MANAGER"
	RoleContributor ProjectRole = "CONTRIBUTOR"
	RoleViewer      ProjectRole = "VIEWER"
)

// Valid reports whether the role is one of the closed set.
func (r ProjectRole) Valid() bool {
	switch r {
	case RoleManager, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// ProjectMember links one user to one project with a role. The
// (project_id, user_id) pair is unique.
type ProjectMember struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ProjectID uint64      `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uint64      `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsManager reports whether the membership carries the manager role.
func (m *ProjectMember) IsManager() bool {
	return m.Role == RoleManager
}
