package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskAssignee struct {
	TaskID      uint64         `gorm:"primarykey" json:"task_id"`
	DeveloperID uint64         `gorm:"primarykey" json:"developer_id"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task      Task      `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Developer Developer `gorm:"foreignKey:DeveloperID" json:"developer,omitempty"`
}
