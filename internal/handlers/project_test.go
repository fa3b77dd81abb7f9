package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/avasseur/projecthub-api/internal/dto"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestProjectHandler_CreateAndList(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")

	w := env.request(t, http.MethodPost, "/api/projects", token, map[string]string{
		"name":        "Apollo",
		"description": "Lunar effort",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created dto.ProjectDTO
	decodeJSON(t, w, &created)
	require.Equal(t, "Apollo", created.Name)

	list := env.request(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var response struct {
		Projects []dto.ProjectWithRoleDTO `json:"projects"`
	}
	decodeJSON(t, list, &response)
	require.Len(t, response.Projects, 1)
	require.Equal(t, created.ID, response.Projects[0].ID)
	require.Equal(t, models.RoleManager, response.Projects[0].Role)
}

func TestProjectHandler_GetDetail(t *testing.T) {
	env := setupHandlerTestEnv(t)
	owner, token := env.registerAndLogin(t, "owner@example.com")
	member, _ := env.registerAndLogin(t, "member@example.com")

	project := env.createProject(t, token, "Apollo")
	_, err := env.projectService.AddMember(project.ID, member.ID, models.RoleViewer)
	require.NoError(t, err)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail dto.ProjectDetailDTO
	decodeJSON(t, w, &detail)
	require.Equal(t, models.RoleManager, detail.YourRole)
	require.Len(t, detail.Members, 2)

	roles := map[uint64]models.ProjectRole{}
	for _, m := range detail.Members {
		roles[m.User.ID] = m.Role
	}
	require.Equal(t, models.RoleManager, roles[owner.ID])
	require.Equal(t, models.RoleViewer, roles[member.ID])
}

func TestProjectHandler_NonMemberGets404(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	_, strangerToken := env.registerAndLogin(t, "stranger@example.com")

	project := env.createProject(t, ownerToken, "Apollo")

	// Existence must not leak to non-members: not 403, but 404.
	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), strangerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	missing := env.request(t, http.MethodGet, "/api/projects/424242", strangerToken, nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestProjectHandler_DeleteRequiresManager(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	member, memberToken := env.registerAndLogin(t, "member@example.com")

	project := env.createProject(t, ownerToken, "Apollo")
	_, err := env.projectService.AddMember(project.ID, member.ID, models.RoleContributor)
	require.NoError(t, err)

	denied := env.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), memberToken, nil)
	require.Equal(t, http.StatusForbidden, denied.Code)

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	gone := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), ownerToken, nil)
	require.Equal(t, http.StatusNotFound, gone.Code)
}

func TestProjectHandler_LastManagerCannotLeave(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")

	project := env.createProject(t, token, "Apollo")

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/leave", project.ID), token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestProjectHandler_RemoveMember(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	member, memberToken := env.registerAndLogin(t, "member@example.com")

	project := env.createProject(t, ownerToken, "Apollo")
	_, err := env.projectService.AddMember(project.ID, member.ID, models.RoleContributor)
	require.NoError(t, err)

	// Non-managers cannot remove members.
	denied := env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/members/%d", project.ID, member.ID), memberToken, nil)
	require.Equal(t, http.StatusForbidden, denied.Code)

	w := env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/members/%d", project.ID, member.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The removed member lost access.
	after := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), memberToken, nil)
	require.Equal(t, http.StatusNotFound, after.Code)
}

func TestProjectHandler_InvitationLifecycle(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	invited, invitedToken := env.registerAndLogin(t, "invited@example.com")

	project := env.createProject(t, ownerToken, "Apollo")

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations", project.ID), ownerToken,
		map[string]uint64{"user_id": invited.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var invitation dto.InvitationDTO
	decodeJSON(t, w, &invitation)
	require.Equal(t, models.InvitationPending, invitation.Status)

	// A second pending invitation for the same user conflicts.
	dup := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations", project.ID), ownerToken,
		map[string]uint64{"user_id": invited.ID})
	require.Equal(t, http.StatusConflict, dup.Code)

	accept := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/accept", project.ID, invitation.ID),
		invitedToken, nil)
	require.Equal(t, http.StatusOK, accept.Code)

	detail := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), invitedToken, nil)
	require.Equal(t, http.StatusOK, detail.Code)

	var body dto.ProjectDetailDTO
	decodeJSON(t, detail, &body)
	require.Equal(t, models.RoleContributor, body.YourRole)

	// Terminal invitations cannot be redeemed again.
	again := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/accept", project.ID, invitation.ID),
		invitedToken, nil)
	require.Equal(t, http.StatusNotFound, again.Code)
}

func TestProjectHandler_AcceptByWrongUserForbidden(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	invited, _ := env.registerAndLogin(t, "invited@example.com")
	_, strangerToken := env.registerAndLogin(t, "stranger@example.com")

	project := env.createProject(t, ownerToken, "Apollo")

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations", project.ID), ownerToken,
		map[string]uint64{"user_id": invited.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var invitation dto.InvitationDTO
	decodeJSON(t, w, &invitation)

	hijack := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/accept", project.ID, invitation.ID),
		strangerToken, nil)
	require.Equal(t, http.StatusForbidden, hijack.Code)
}

func TestProjectHandler_AcceptExpiredGone(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	invited, invitedToken := env.registerAndLogin(t, "invited@example.com")

	project := env.createProject(t, ownerToken, "Apollo")

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations", project.ID), ownerToken,
		map[string]uint64{"user_id": invited.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var invitation dto.InvitationDTO
	decodeJSON(t, w, &invitation)

	err := env.db.Model(&models.ProjectInvitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	expired := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/accept", project.ID, invitation.ID),
		invitedToken, nil)
	require.Equal(t, http.StatusGone, expired.Code)

	// The expired invitation was discarded on touch.
	again := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/accept", project.ID, invitation.ID),
		invitedToken, nil)
	require.Equal(t, http.StatusNotFound, again.Code)
}

func TestProjectHandler_RefuseInvitation(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	invited, invitedToken := env.registerAndLogin(t, "invited@example.com")

	project := env.createProject(t, ownerToken, "Apollo")

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations", project.ID), ownerToken,
		map[string]uint64{"user_id": invited.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var invitation dto.InvitationDTO
	decodeJSON(t, w, &invitation)

	refuse := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/invitations/%d/refuse", project.ID, invitation.ID),
		invitedToken, nil)
	require.Equal(t, http.StatusOK, refuse.Code)

	// Refusing keeps the user out of the project.
	detail := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), invitedToken, nil)
	require.Equal(t, http.StatusNotFound, detail.Code)
}

func (env handlerTestEnv) createProject(t *testing.T, token, name string) dto.ProjectDTO {
	t.Helper()
	w := env.request(t, http.MethodPost, "/api/projects", token, map[string]string{
		"name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var project dto.ProjectDTO
	decodeJSON(t, w, &project)
	return project
}
