package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avasseur/projecthub-api/internal/dto"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ProjectHandler serves project CRUD, membership and invitation endpoints.
type ProjectHandler struct {
	projectService    *services.ProjectService
	invitationService *services.InvitationService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, invitationService *services.InvitationService) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		invitationService: invitationService,
	}
}

// CreateProject creates a project with the caller as its manager.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required,min=1,max=255"`
		Description string `json:"description" binding:"max=2048"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects returns the caller's projects with their role in each.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.projectService.ListProjectsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list projects")
		return
	}

	projects := make([]dto.ProjectWithRoleDTO, len(memberships))
	for i, membership := range memberships {
		projects[i] = dto.ToProjectWithRoleDTO(membership)
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
	})
}

// GetProject returns the project with its member list and the caller's role.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	members, err := h.projectService.ListMembers(project.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list project members")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(project, members, membership.Role))
}

// DeleteProject soft deletes the project. Manager only.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	if err := h.projectService.DeleteProject(project.ID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// ListMembers returns all members of the project.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	members, err := h.projectService.ListMembers(project.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list project members")
		return
	}

	memberDTOs := make([]dto.ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = dto.ToProjectMemberDTO(member)
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// Leave removes the caller's own membership from the project.
func (h *ProjectHandler) Leave(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.projectService.Leave(project.ID, userID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left the project",
	})
}

// RemoveMember removes a member from the project. Manager only.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("user"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.projectService.RemoveMember(project.ID, memberID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

// Invite creates a pending invitation for a user to join the project.
// Manager only.
func (h *ProjectHandler) Invite(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type InviteRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invitation, err := h.invitationService.Invite(project.ID, userID, req.UserID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invitation))
}

// AcceptInvitation redeems a pending invitation addressed to the caller; on
// success they become a contributor.
func (h *ProjectHandler) AcceptInvitation(c *gin.Context) {
	projectID, invitationID, actorID, ok := h.invitationParams(c)
	if !ok {
		return
	}

	member, err := h.invitationService.Accept(projectID, invitationID, actorID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": member.ProjectID,
		"role":       member.Role,
	})
}

// RefuseInvitation declines a pending invitation addressed to the caller.
func (h *ProjectHandler) RefuseInvitation(c *gin.Context) {
	projectID, invitationID, actorID, ok := h.invitationParams(c)
	if !ok {
		return
	}

	if err := h.invitationService.Refuse(projectID, invitationID, actorID); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation refused",
	})
}

// invitationParams parses the route and identifies the caller. Accept and
// refuse are reachable by the invited user, who is not yet a member, so the
// project membership middleware does not guard these routes.
func (h *ProjectHandler) invitationParams(c *gin.Context) (projectID, invitationID, actorID uint64, ok bool) {
	projectID, err := strconv.ParseUint(c.Param("project"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return 0, 0, 0, false
	}
	invitationID, err = strconv.ParseUint(c.Param("invitation"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return 0, 0, 0, false
	}
	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, 0, 0, false
	}
	return projectID, invitationID, actorID, true
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProjectName), errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound), errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrLastManager):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotProjectManager):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCannotInviteSelf):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvitationExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvitationExpired):
		apierrors.Gone(c, err.Error())
	case errors.Is(err, services.ErrNotInvitedUser):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrInvitationWrongProj),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
