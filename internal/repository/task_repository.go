package repository

import (
	"errors"

	"github.com/avasseur/projecthub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidMove is returned when a subtree would be moved under itself or
// under one of its own descendants.
var ErrInvalidMove = errors.New("task repository: cannot move a task under its own subtree")

// GormTaskRepository is a GORM implementation of TaskRepository.
//
// All structural mutations follow the same shape: open a transaction, take a
// FOR UPDATE lock on the project row (the lock root for the whole forest),
// re-read the bounds inside the transaction, then relabel. Readers between
// transactions therefore never observe partial relabeling, and concurrent
// inserts against the same project serialize instead of interleaving their
// bound shifts.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// lockProject takes the per-project mutation lock. SQLite serializes writers
// on its own and rejects FOR UPDATE, so the clause is skipped there.
func lockProject(tx *gorm.DB, projectID uint64) error {
	query := tx
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var project models.Project
	return query.First(&project, projectID).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// InsertRoot inserts a task as a new root after the project's rightmost tree.
func (r *GormTaskRepository) InsertRoot(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}

		var maxRight int
		err := tx.Model(&models.Task{}).
			Where("project_id = ?", task.ProjectID).
			Select("COALESCE(MAX(tree_right), 0)").
			Scan(&maxRight).Error
		if err != nil {
			return err
		}

		task.ParentID = nil
		task.Level = 0
		task.TreeLeft = maxRight + 1
		task.TreeRight = maxRight + 2

		if err := tx.Create(task).Error; err != nil {
			return err
		}

		// A root marks itself; the ID only exists after the insert.
		task.RootID = &task.ID
		return tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Update("root_id", task.ID).Error
	})
}

// InsertChild inserts a task as the rightmost child of parentID, shifting
// every bound at or beyond the parent's old right edge by +2.
func (r *GormTaskRepository) InsertChild(task *models.Task, parentID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}

		var parent models.Task
		if err := tx.First(&parent, parentID).Error; err != nil {
			return err
		}

		newLeft := parent.TreeRight

		err := tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_left >= ?", task.ProjectID, newLeft).
			Update("tree_left", gorm.Expr("tree_left + 2")).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_right >= ?", task.ProjectID, newLeft).
			Update("tree_right", gorm.Expr("tree_right + 2")).Error
		if err != nil {
			return err
		}

		task.ParentID = &parent.ID
		task.RootID = parent.RootID
		task.Level = parent.Level + 1
		task.TreeLeft = newLeft
		task.TreeRight = newLeft + 1

		return tx.Create(task).Error
	})
}

// ListRoots lists root tasks of a project ordered by tree_left
func (r *GormTaskRepository) ListRoots(projectID uint64, page, pageSize int) ([]models.Task, int64, error) {
	query := r.db.Model(&models.Task{}).
		Where("project_id = ? AND parent_id IS NULL", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tree_left ASC")
	if page > 0 && pageSize > 0 {
		listQuery = listQuery.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var tasks []models.Task
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListChildren lists direct children ordered by tree_left
func (r *GormTaskRepository) ListChildren(parentID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("parent_id = ?", parentID).
		Order("tree_left ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListSubtree lists a task's subtree (itself included) ordered by tree_left
func (r *GormTaskRepository) ListSubtree(task *models.Task) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("project_id = ? AND tree_left >= ? AND tree_right <= ?",
			task.ProjectID, task.TreeLeft, task.TreeRight).
		Order("tree_left ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update persists attribute changes; never touches the tree bounds
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// MoveSubtree re-parents a subtree. The relabeling negates the moved bounds,
// closes the gap they leave, opens a gap at the destination and restores the
// negated bounds with the destination offset, all in one transaction.
func (r *GormTaskRepository) MoveSubtree(taskID uint64, newParentID *uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}

		// Re-read under the lock: bounds may have shifted since the caller
		// validated the move.
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		width := task.Width()

		var newLevel int
		var newRootID uint64

		if newParentID != nil {
			var parent models.Task
			if err := tx.First(&parent, *newParentID).Error; err != nil {
				return err
			}
			if parent.ID == task.ID || task.Contains(&parent) {
				return ErrInvalidMove
			}
			newLevel = parent.Level + 1
			if parent.RootID != nil {
				newRootID = *parent.RootID
			}
		} else {
			newLevel = 0
			newRootID = task.ID
		}

		// Step 1: park the subtree in negative bound space.
		err := tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_left >= ? AND tree_right <= ?",
				task.ProjectID, task.TreeLeft, task.TreeRight).
			Updates(map[string]interface{}{
				"tree_left":  gorm.Expr("-tree_left"),
				"tree_right": gorm.Expr("-tree_right"),
			}).Error
		if err != nil {
			return err
		}

		// Step 2: close the gap the subtree left behind.
		err = tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_left > ?", task.ProjectID, task.TreeRight).
			Update("tree_left", gorm.Expr("tree_left - ?", width)).Error
		if err != nil {
			return err
		}
		err = tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_right > ?", task.ProjectID, task.TreeRight).
			Update("tree_right", gorm.Expr("tree_right - ?", width)).Error
		if err != nil {
			return err
		}

		// Step 3: open a gap at the destination.
		var newLeft int
		if newParentID != nil {
			var parent models.Task
			if err := tx.First(&parent, *newParentID).Error; err != nil {
				return err
			}
			newLeft = parent.TreeRight

			err = tx.Model(&models.Task{}).
				Where("project_id = ? AND tree_left >= ?", task.ProjectID, newLeft).
				Update("tree_left", gorm.Expr("tree_left + ?", width)).Error
			if err != nil {
				return err
			}
			err = tx.Model(&models.Task{}).
				Where("project_id = ? AND tree_right >= ?", task.ProjectID, newLeft).
				Update("tree_right", gorm.Expr("tree_right + ?", width)).Error
			if err != nil {
				return err
			}
		} else {
			var maxRight int
			err := tx.Model(&models.Task{}).
				Where("project_id = ? AND tree_right > 0", task.ProjectID).
				Select("COALESCE(MAX(tree_right), 0)").
				Scan(&maxRight).Error
			if err != nil {
				return err
			}
			newLeft = maxRight + 1
		}

		// Step 4: restore the parked subtree at its new position.
		offset := newLeft - task.TreeLeft
		levelDelta := newLevel - task.Level

		err = tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_left < 0", task.ProjectID).
			Updates(map[string]interface{}{
				"tree_left":  gorm.Expr("-tree_left + ?", offset),
				"tree_right": gorm.Expr("-tree_right + ?", offset),
				"level":      gorm.Expr("level + ?", levelDelta),
				"root_id":    newRootID,
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Update("parent_id", newParentID).Error
	})
}

// DeleteSubtree soft deletes a task with all descendants and closes the gap
func (r *GormTaskRepository) DeleteSubtree(taskID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}

		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		width := task.Width()

		err := tx.Where("project_id = ? AND tree_left >= ? AND tree_right <= ?",
			task.ProjectID, task.TreeLeft, task.TreeRight).
			Delete(&models.Task{}).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_left > ?", task.ProjectID, task.TreeRight).
			Update("tree_left", gorm.Expr("tree_left - ?", width)).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Task{}).
			Where("project_id = ? AND tree_right > ?", task.ProjectID, task.TreeRight).
			Update("tree_right", gorm.Expr("tree_right - ?", width)).Error
	})
}
