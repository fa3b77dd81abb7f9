package dto

import (
	"time"

	"github.com/avasseur/projecthub-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ProjectID   uint64              `json:"project_id"`
	ParentID    *uint64             `json:"parent_id"`
	Level       int                 `json:"level"`
	IsRoot      bool                `json:"is_root"`
	IsLeaf      bool                `json:"is_leaf"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Children    []TaskDTO           `json:"children,omitempty"`
}

// TaskListResponse represents a paginated list of root tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		ProjectID:   task.ProjectID,
		ParentID:    task.ParentID,
		Level:       task.Level,
		IsRoot:      task.IsRoot(),
		IsLeaf:      task.IsLeaf(),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if len(task.Children) > 0 {
		dto.Children = make([]TaskDTO, len(task.Children))
		for i, child := range task.Children {
			dto.Children[i] = ToTaskDTO(child)
		}
	}

	return dto
}

// ToTaskListResponse converts root tasks to a paginated response
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
