package models

import "time"

// ChangeAction is the kind of mutation recorded in the change log.
type ChangeAction string

const (
	ChangeActionCreate ChangeAction = "create"
	ChangeActionUpdate ChangeAction = "update"
	ChangeActionDelete ChangeAction = "delete"
)

// ChangeLog is an audit row written for every mutating operation on
// tasks, projects and developers.
type ChangeLog struct {
	ID         uint64       `gorm:"primarykey" json:"id"`
	ActorID    uint64       `gorm:"index" json:"actor_id"`
	Action     ChangeAction `gorm:"type:varchar(20);not null" json:"action"`
	EntityType string       `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   uint64       `gorm:"not null" json:"entity_id"`
	Summary    string       `gorm:"type:text" json:"summary"`
	CreatedAt  time.Time    `json:"created_at"`

	// Relations
	Actor Developer `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
