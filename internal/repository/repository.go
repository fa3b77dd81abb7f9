package repository

import (
	"github.com/avasseur/projecthub-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// CreateWithManager creates a project and its managing member atomically
	CreateWithManager(project *models.Project, manager *models.ProjectMember) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete soft deletes a project
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member; returns gorm.ErrRecordNotFound when absent
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// ListMembershipsByUserID lists all projects a user is a member of
	ListMembershipsByUserID(userID uint64) ([]models.ProjectMember, error)

	// CountManagers counts the project's members holding the manager role
	CountManagers(projectID uint64) (int64, error)
}

// TaskRepository defines the interface for the nested-set task forest.
// Structural mutations run in one transaction that locks the project row
// before reading or writing any bounds.
type TaskRepository interface {
	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// InsertRoot inserts a task as a new root at the end of the project's
	// bound line
	InsertRoot(task *models.Task) error

	// InsertChild inserts a task as the rightmost child of parentID
	InsertChild(task *models.Task, parentID uint64) error

	// ListRoots lists root tasks of a project ordered by tree_left
	ListRoots(projectID uint64, page, pageSize int) ([]models.Task, int64, error)

	// ListChildren lists direct children ordered by tree_left
	ListChildren(parentID uint64) ([]models.Task, error)

	// ListSubtree lists a task's subtree (itself included) ordered by tree_left
	ListSubtree(task *models.Task) ([]models.Task, error)

	// Update persists attribute changes; never touches the tree bounds
	Update(task *models.Task) error

	// MoveSubtree re-parents a subtree; newParentID nil moves it to root level
	MoveSubtree(taskID uint64, newParentID *uint64) error

	// DeleteSubtree soft deletes a task with all descendants and closes the gap
	DeleteSubtree(taskID uint64) error
}

// InvitationRepository defines the interface for project invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(invitation *models.ProjectInvitation) error

	// FindByID finds an invitation by ID
	FindByID(id uint64) (*models.ProjectInvitation, error)

	// FindPending finds the pending invitation for a (project, invited) pair
	FindPending(projectID, invitedID uint64) (*models.ProjectInvitation, error)

	// Delete soft deletes an invitation
	Delete(invitation *models.ProjectInvitation) error

	// Accept marks a pending invitation accepted and creates the membership
	// atomically; returns gorm.ErrRecordNotFound if it is no longer pending
	Accept(invitationID uint64, member *models.ProjectMember) error

	// Refuse marks a pending invitation refused; returns
	// gorm.ErrRecordNotFound if it is no longer pending
	Refuse(invitationID uint64) error
}

// RefreshTokenRepository defines the interface for refresh token data access.
// Tokens are single-use: rotation deletes the consumed row and inserts the
// replacement in one transaction.
type RefreshTokenRepository interface {
	// Create persists a new refresh token
	Create(token *models.RefreshToken) error

	// FindByToken finds a refresh token by its opaque value
	FindByToken(value string) (*models.RefreshToken, error)

	// Rotate deletes the old token and creates the new one atomically;
	// returns gorm.ErrRecordNotFound if the old token was already consumed
	Rotate(oldID uint64, newToken *models.RefreshToken) error

	// DeleteByToken removes a token by value; missing tokens are not an error
	DeleteByToken(value string) error

	// DeleteByID removes a token by ID
	DeleteByID(id uint64) error
}
