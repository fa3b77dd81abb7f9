package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avasseur/projecthub-api/internal/constants"
	"github.com/avasseur/projecthub-api/internal/models"
	"github.com/avasseur/projecthub-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrTitleRequired         = errors.New("title is required")
	ErrTitleLength           = errors.New("title length is out of bounds")
	ErrDescriptionTooLong    = errors.New("description is too long")
	ErrInvalidStatus         = errors.New("unknown task status")
	ErrInvalidPriority       = errors.New("unknown task priority")
	ErrParentProjectMismatch = errors.New("parent task belongs to a different project")
	ErrTaskProjectMismatch   = errors.New("task does not belong to this project")
	ErrMoveIntoOwnSubtree    = errors.New("cannot move a task under its own subtree")
)

// TaskService is the task tree engine: it owns creation, mutation and
// structural queries over each project's nested-set task forest. Bound
// relabeling itself happens in the repository inside a single transaction per
// mutation; this layer validates cross-entity rules before any bound moves.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	ParentID    *uint64
}

// CreateTask inserts a task into the project's forest, as a child of
// ParentID or as a new root. The parent, if given, must belong to the same
// project.
func (s *TaskService) CreateTask(projectID uint64, input CreateTaskInput) (*models.Task, error) {
	if err := validateTaskAttrs(input.Title, input.Description); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	} else if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	} else if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		ProjectID:   projectID,
	}

	if input.ParentID == nil {
		if err := s.taskRepo.InsertRoot(task); err != nil {
			return nil, fmt.Errorf("failed to insert root task: %w", err)
		}
		return task, nil
	}

	parent, err := s.taskRepo.FindByID(*input.ParentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find parent task: %w", err)
	}
	if parent.ProjectID != projectID {
		return nil, ErrParentProjectMismatch
	}

	if err := s.taskRepo.InsertChild(task, parent.ID); err != nil {
		return nil, fmt.Errorf("failed to insert child task: %w", err)
	}

	return task, nil
}

// ListRootTasks returns the project's root tasks ordered by tree position.
// The listing is computed fresh from the materialized bounds on every call.
func (s *TaskService) ListRootTasks(projectID uint64, page, pageSize int) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.ListRoots(projectID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list root tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task of the project together with its direct children.
func (s *TaskService) GetTask(projectID, taskID uint64) (*models.Task, error) {
	task, err := s.loadProjectTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	children, err := s.taskRepo.ListChildren(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	task.Children = children

	return task, nil
}

// UpdateTaskInput represents partial attribute changes; nil fields are left
// untouched. Structural fields are not updatable here — use MoveTask.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// UpdateTask updates a task's attributes.
func (s *TaskService) UpdateTask(projectID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadProjectTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := validateTaskAttrs(*input.Title, task.Description); err != nil {
			return nil, err
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		if len(*input.Description) > constants.MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// MoveTask re-parents a subtree within its project; a nil newParentID makes
// it a root. Moving a task under itself or one of its descendants is
// rejected.
func (s *TaskService) MoveTask(projectID, taskID uint64, newParentID *uint64) (*models.Task, error) {
	task, err := s.loadProjectTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == task.ID {
			return nil, ErrMoveIntoOwnSubtree
		}
		parent, err := s.taskRepo.FindByID(*newParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTaskNotFound
			}
			return nil, fmt.Errorf("failed to find new parent: %w", err)
		}
		if parent.ProjectID != projectID {
			return nil, ErrParentProjectMismatch
		}
		if task.Contains(parent) {
			return nil, ErrMoveIntoOwnSubtree
		}
	}

	if err := s.taskRepo.MoveSubtree(task.ID, newParentID); err != nil {
		if errors.Is(err, repository.ErrInvalidMove) {
			return nil, ErrMoveIntoOwnSubtree
		}
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID)
}

// DeleteTask removes a task and its whole subtree (cascade) and closes the
// bound gap.
func (s *TaskService) DeleteTask(projectID, taskID uint64) error {
	task, err := s.loadProjectTask(projectID, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteSubtree(task.ID); err != nil {
		return fmt.Errorf("failed to delete task subtree: %w", err)
	}

	return nil
}

// ListSubtree returns a task and all of its descendants in tree order.
func (s *TaskService) ListSubtree(projectID, taskID uint64) ([]models.Task, error) {
	task, err := s.loadProjectTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListSubtree(task)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtree: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) loadProjectTask(projectID, taskID uint64) (*models.Task, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.ProjectID != projectID {
		return nil, ErrTaskProjectMismatch
	}

	return task, nil
}

func validateTaskAttrs(title, description string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrTitleRequired
	}
	if len(trimmed) < constants.MinTitleLength || len(trimmed) > constants.MaxTitleLength {
		return ErrTitleLength
	}
	if len(description) > constants.MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
