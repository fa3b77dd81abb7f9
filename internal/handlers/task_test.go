package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/avasseur/projecthub-api/internal/dto"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler_CreateAndGet(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks", project.ID), token,
		map[string]interface{}{
			"title":    "Design heat shield",
			"priority": "HIGH",
		})
	require.Equal(t, http.StatusCreated, w.Code)

	var root dto.TaskDTO
	decodeJSON(t, w, &root)
	require.Equal(t, "Design heat shield", root.Title)
	require.Equal(t, models.TaskStatusTodo, root.Status)
	require.Equal(t, models.TaskPriorityHigh, root.Priority)
	require.True(t, root.IsRoot)
	require.True(t, root.IsLeaf)

	child := env.createTask(t, token, project.ID, "Thermal testing", &root.ID)

	get := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, root.ID), token, nil)
	require.Equal(t, http.StatusOK, get.Code)

	var fetched dto.TaskDTO
	decodeJSON(t, get, &fetched)
	require.False(t, fetched.IsLeaf)
	require.Len(t, fetched.Children, 1)
	require.Equal(t, child.ID, fetched.Children[0].ID)
	require.Equal(t, 1, fetched.Children[0].Level)
}

func TestTaskHandler_CreateValidation(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	noTitle := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks", project.ID), token,
		map[string]interface{}{"description": "no title"})
	require.Equal(t, http.StatusBadRequest, noTitle.Code)

	badStatus := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks", project.ID), token,
		map[string]interface{}{"title": "Valid title", "status": "BOGUS"})
	require.Equal(t, http.StatusBadRequest, badStatus.Code)
}

func TestTaskHandler_ViewerCannotEdit(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	viewer, viewerToken := env.registerAndLogin(t, "viewer@example.com")

	project := env.createProject(t, ownerToken, "Apollo")
	_, err := env.projectService.AddMember(project.ID, viewer.ID, models.RoleViewer)
	require.NoError(t, err)

	task := env.createTask(t, ownerToken, project.ID, "Owner task", nil)

	// Viewers can read.
	list := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/tasks", project.ID), viewerToken, nil)
	require.Equal(t, http.StatusOK, list.Code)

	// But every mutation is forbidden.
	create := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks", project.ID), viewerToken,
		map[string]interface{}{"title": "Viewer task"})
	require.Equal(t, http.StatusForbidden, create.Code)

	patch := env.request(t, http.MethodPatch,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), viewerToken,
		map[string]interface{}{"title": "Renamed"})
	require.Equal(t, http.StatusForbidden, patch.Code)

	del := env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), viewerToken, nil)
	require.Equal(t, http.StatusForbidden, del.Code)
}

func TestTaskHandler_NonMemberGets404(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, ownerToken := env.registerAndLogin(t, "owner@example.com")
	_, strangerToken := env.registerAndLogin(t, "stranger@example.com")

	project := env.createProject(t, ownerToken, "Apollo")
	task := env.createTask(t, ownerToken, project.ID, "Secret task", nil)

	w := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), strangerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_ListRootsPaginated(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	for i := 0; i < 5; i++ {
		root := env.createTask(t, token, project.ID, fmt.Sprintf("Root %d", i), nil)
		env.createTask(t, token, project.ID, fmt.Sprintf("Child %d", i), &root.ID)
	}

	w := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/tasks?page=2&limit=2", project.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TaskListResponse
	decodeJSON(t, w, &response)
	require.Len(t, response.Tasks, 2)
	require.EqualValues(t, 5, response.TotalCount)
	require.Equal(t, 3, response.TotalPages)
	require.Equal(t, 2, response.Page)

	// Only roots are listed, in tree order.
	require.Equal(t, "Root 2", response.Tasks[0].Title)
	require.Equal(t, "Root 3", response.Tasks[1].Title)
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")
	task := env.createTask(t, token, project.ID, "Initial title", nil)

	w := env.request(t, http.MethodPatch,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), token,
		map[string]interface{}{
			"title":  "Updated title",
			"status": "DOING",
		})
	require.Equal(t, http.StatusOK, w.Code)

	var updated dto.TaskDTO
	decodeJSON(t, w, &updated)
	require.Equal(t, "Updated title", updated.Title)
	require.Equal(t, models.TaskStatusDoing, updated.Status)
}

func TestTaskHandler_MoveTask(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	a := env.createTask(t, token, project.ID, "Task A", nil)
	b := env.createTask(t, token, project.ID, "Task B", &a.ID)
	c := env.createTask(t, token, project.ID, "Task C", nil)

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks/%d/move", project.ID, b.ID), token,
		map[string]interface{}{"parent_id": c.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var moved dto.TaskDTO
	decodeJSON(t, w, &moved)
	require.Equal(t, c.ID, *moved.ParentID)
	require.Equal(t, 1, moved.Level)

	// Moving a task under its own subtree is rejected.
	cycle := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks/%d/move", project.ID, c.ID), token,
		map[string]interface{}{"parent_id": b.ID})
	require.Equal(t, http.StatusBadRequest, cycle.Code)

	// A null parent promotes the task back to root.
	promote := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks/%d/move", project.ID, b.ID), token,
		map[string]interface{}{"parent_id": nil})
	require.Equal(t, http.StatusOK, promote.Code)

	var promoted dto.TaskDTO
	decodeJSON(t, promote, &promoted)
	require.True(t, promoted.IsRoot)
	require.Equal(t, 0, promoted.Level)
}

func TestTaskHandler_DeleteCascades(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	root := env.createTask(t, token, project.ID, "Root task", nil)
	child := env.createTask(t, token, project.ID, "Child task", &root.ID)

	w := env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, root.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, id := range []uint64{root.ID, child.ID} {
		gone := env.request(t, http.MethodGet,
			fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, id), token, nil)
		require.Equal(t, http.StatusNotFound, gone.Code)
	}
}

func TestTaskHandler_GetSubtree(t *testing.T) {
	env := setupHandlerTestEnv(t)
	_, token := env.registerAndLogin(t, "owner@example.com")
	project := env.createProject(t, token, "Apollo")

	root := env.createTask(t, token, project.ID, "Root task", nil)
	child := env.createTask(t, token, project.ID, "Child task", &root.ID)
	grandchild := env.createTask(t, token, project.ID, "Grandchild task", &child.ID)
	env.createTask(t, token, project.ID, "Unrelated root", nil)

	w := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/tasks/%d/subtree", project.ID, root.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Tasks []dto.TaskDTO `json:"tasks"`
	}
	decodeJSON(t, w, &response)
	require.Len(t, response.Tasks, 3)
	require.Equal(t, root.ID, response.Tasks[0].ID)
	require.Equal(t, child.ID, response.Tasks[1].ID)
	require.Equal(t, grandchild.ID, response.Tasks[2].ID)
}

func (env handlerTestEnv) createTask(t *testing.T, token string, projectID uint64, title string, parentID *uint64) dto.TaskDTO {
	t.Helper()

	payload := map[string]interface{}{"title": title}
	if parentID != nil {
		payload["parent_id"] = *parentID
	}

	w := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/tasks", projectID), token, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var task dto.TaskDTO
	decodeJSON(t, w, &task)
	return task
}
