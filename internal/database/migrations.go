package database

import (
	"log"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database.
// Index creation is best-effort: a duplicate index error on one entry
// must not block the rest.
func AddIndexes(db *gorm.DB) {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for the board queries
		{"tasks", "idx_tasks_project_id", "project_id"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_phase", "phase"},
		{"tasks", "idx_tasks_start_date", "start_date"},
		{"tasks", "idx_tasks_target_date", "target_date"},

		// Assignment lookups
		{"task_assignees", "idx_task_assignees_task_id", "task_id"},
		{"task_assignees", "idx_task_assignees_developer_id", "developer_id"},

		// Change log filtering
		{"change_logs", "idx_change_logs_entity", "entity_type, entity_id"},
		{"change_logs", "idx_change_logs_created_at", "created_at"},
	}

	for _, idx := range indexes {
		stmt := "CREATE INDEX " + idx.name + " ON " + idx.table + " (" + idx.columns + ")"
		if err := db.Exec(stmt).Error; err != nil {
			log.Printf("index %s skipped: %v", idx.name, err)
		}
	}
}
