package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avasseur/projecthub-api/internal/dto"
	apierrors "github.com/avasseur/projecthub-api/internal/errors"
	"github.com/avasseur/projecthub-api/internal/middleware"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/services"
	"github.com/avasseur/projecthub-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// TaskHandler serves the task tree endpoints of a project.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListRootTasks returns the project's root tasks, paginated, in tree order.
func (h *TaskHandler) ListRootTasks(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListRootTasks(project.ID, params.Page, params.Limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// CreateTask creates a task, as a child of parent_id or as a new root.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		ParentID    *uint64    `json:"parent_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(project.ID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		ParentID:    req.ParentID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its direct children.
func (h *TaskHandler) GetTask(c *gin.Context) {
	project, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(project.ID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GetSubtree returns a task and all of its descendants in tree order.
func (h *TaskHandler) GetSubtree(c *gin.Context) {
	project, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListSubtree(project.ID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	items := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = dto.ToTaskDTO(task)
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": items,
	})
}

// UpdateTask applies partial attribute changes to a task. Structural changes
// go through MoveTask.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	project, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title        *string    `json:"title"`
		Description  *string    `json:"description"`
		Status       *string    `json:"status"`
		Priority     *string    `json:"priority"`
		DueDate      *time.Time `json:"due_date"`
		ClearDueDate bool       `json:"clear_due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(project.ID, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// MoveTask re-parents a task's subtree; a null parent_id makes it a root.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	project, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		ParentID *uint64 `json:"parent_id"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.MoveTask(project.ID, taskID, req.ParentID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task and its whole subtree.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	project, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(project.ID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func (h *TaskHandler) taskParams(c *gin.Context) (models.Project, uint64, bool) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return models.Project{}, 0, false
	}

	taskID, err := strconv.ParseUint(c.Param("task"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return models.Project{}, 0, false
	}

	return project, taskID, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleLength),
		errors.Is(err, services.ErrDescriptionTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrParentProjectMismatch),
		errors.Is(err, services.ErrMoveIntoOwnSubtree):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrTaskProjectMismatch),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
