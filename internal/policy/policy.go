// Package policy derives access decisions from project membership roles.
// It holds no state: every function is a pure predicate over role data, so
// the HTTP layer and the services can consult it without touching storage.
package policy

import "github.com/avasseur/projecthub-api/internal/models"

// CanViewProject reports whether a member with the given role may read the
// project, its members and its tasks. Any valid membership role suffices.
func CanViewProject(role models.ProjectRole) bool {
	return role.Valid()
}

// CanEditTasks reports whether the role may create, modify, move or delete
// tasks in the project.
func CanEditTasks(role models.ProjectRole) bool {
	return role == models.RoleManager || role == models.RoleContributor
}

// CanManageMembers reports whether the role may invite users, remove members
// or change roles.
func CanManageMembers(role models.ProjectRole) bool {
	return role == models.RoleManager
}

// CanManageProject reports whether the role may update or delete the project
// itself.
func CanManageProject(role models.ProjectRole) bool {
	return role == models.RoleManager
}

// CanLeaveProject reports whether a member may remove themselves. Leaving
// requires membership but no particular role.
func CanLeaveProject(role models.ProjectRole) bool {
	return role.Valid()
}
