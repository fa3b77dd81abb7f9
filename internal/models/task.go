package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "TODO"
	TaskStatusDoing TaskStatus = "DOING"
	TaskStatusDone  TaskStatus = "DONE"
)

// Valid reports whether the status is one of the closed set.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusDoing, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "LOW"
	TaskPriorityMedium   TaskPriority = "MEDIUM"
	TaskPriorityHigh     TaskPriority = "HIGH"
	TaskPriorityCritical TaskPriority = "CRITICAL"
)

// Valid reports whether the priority is one of the closed set.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

// Task is a node in a project's task forest. The tree is materialized as a
// nested set: TreeLeft/TreeRight bounds are project-scoped, so sibling roots
// occupy disjoint ranges on one number line and a node M is a descendant of N
// iff N.TreeLeft < M.TreeLeft and M.TreeRight < N.TreeRight.
type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Priority    TaskPriority   `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	DueDate     *time.Time     `json:"due_date"`
	ProjectID   uint64         `gorm:"not null;index" json:"project_id"`
	ParentID    *uint64        `gorm:"index" json:"parent_id"`
	RootID      *uint64        `gorm:"index" json:"root_id"`
	Level       int            `gorm:"not null;default:0" json:"level"`
	TreeLeft    int            `gorm:"not null;index" json:"tree_left"`
	TreeRight   int            `gorm:"not null" json:"tree_right"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project  Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Parent   *Task   `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Task  `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// IsLeaf reports whether the task has no descendants.
func (t *Task) IsLeaf() bool {
	return t.TreeRight == t.TreeLeft+1
}

// Width is the size of the bound range covered by the subtree.
func (t *Task) Width() int {
	return t.TreeRight - t.TreeLeft + 1
}

// Contains reports whether other lies strictly inside t's bounds.
func (t *Task) Contains(other *Task) bool {
	return t.TreeLeft < other.TreeLeft && other.TreeRight < t.TreeRight
}
