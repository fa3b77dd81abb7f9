package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddConstraints creates the indexes AutoMigrate cannot express. The partial
// unique index backs the one-pending-invitation-per-(project,invited) rule
// under concurrent inserts; the service-level check alone would race.
func AddConstraints(db *gorm.DB) error {
	// Postgres only: other dialects fall back to the service-level checks.
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			"idx_invitations_pending_unique",
			`CREATE UNIQUE INDEX idx_invitations_pending_unique
			 ON project_invitations (project_id, invited_id)
			 WHERE status = 'PENDING' AND deleted_at IS NULL`,
		},
		{
			"idx_tasks_project_tree_left",
			`CREATE INDEX idx_tasks_project_tree_left ON tasks (project_id, tree_left)`,
		},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE indexname = ?
		`, idx.name).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
