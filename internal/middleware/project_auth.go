package middleware

import (
	"strconv"

	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/database"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/policy"
	"github.com/gin-gonic/gin"
)

// RequireProjectAccess checks that the caller is a member of the :project in
// the URL and stores the project and membership in context. Non-members get
// 404 rather than 403 so project existence does not leak.
func RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("project"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().First(&project, projectID).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		var member models.ProjectMember
		err = database.GetDB().
			Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		if !policy.CanViewProject(member.Role) {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Set(constants.ContextKeyMembership, member)
		c.Next()
	}
}

// RequireTaskEditor allows only roles that may create or modify tasks.
func RequireTaskEditor() gin.HandlerFunc {
	return requireRole(policy.CanEditTasks, "Viewers cannot modify tasks")
}

// RequireProjectManager allows only the manager role.
func RequireProjectManager() gin.HandlerFunc {
	return requireRole(policy.CanManageMembers, "Only a project manager can perform this action")
}

func requireRole(allowed func(models.ProjectRole) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Project access required")
			c.Abort()
			return
		}

		if !allowed(member.Role) {
			apierrors.Forbidden(c, message)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetProject retrieves the project stored by RequireProjectAccess.
func GetProject(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}
	project, ok := value.(models.Project)
	return project, ok
}

// GetMembership retrieves the membership stored by RequireProjectAccess.
func GetMembership(c *gin.Context) (models.ProjectMember, bool) {
	value, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return models.ProjectMember{}, false
	}
	member, ok := value.(models.ProjectMember)
	return member, ok
}
