package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultDeveloperColor is used when a developer has no display color.
const DefaultDeveloperColor = "#94A3B8"

type Developer struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Username     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Color        string         `gorm:"type:varchar(20)" json:"color"`
	AvatarURL    string         `gorm:"type:varchar(500)" json:"avatar_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Roles       []Role         `gorm:"many2many:developer_roles;" json:"roles,omitempty"`
	Assignments []TaskAssignee `gorm:"foreignKey:DeveloperID" json:"-"`
}

type Role struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Developers []Developer `gorm:"many2many:developer_roles;" json:"-"`
}
