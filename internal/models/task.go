package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusValidated  TaskStatus = "validated"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusOnHold     TaskStatus = "onhold"
)

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusValidated, TaskStatusCancelled, TaskStatusOnHold:
		return true
	}
	return false
}

// IsFinished reports whether the status marks actual completion.
func (s TaskStatus) IsFinished() bool {
	return s == TaskStatusCompleted || s == TaskStatusValidated
}

// UnmarshalJSON accepts a plain status string. It also unwraps the
// malformed {"status": "..."} object form that some clients emit,
// falling back to pending when the inner value is missing.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = TaskStatus(plain)
		return nil
	}

	var wrapped struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Status == "" {
		*s = TaskStatusPending
		return nil
	}
	*s = TaskStatus(wrapped.Status)
	return nil
}

// TaskWeight is the workload category of a task.
type TaskWeight string

const (
	TaskWeightLight  TaskWeight = "light"
	TaskWeightMedium TaskWeight = "medium"
	TaskWeightHeavy  TaskWeight = "heavy"
)

// Valid reports whether the weight is one of the known values.
func (w TaskWeight) Valid() bool {
	switch w {
	case TaskWeightLight, TaskWeightMedium, TaskWeightHeavy:
		return true
	}
	return false
}

// Points returns the workload score for the weight.
func (w TaskWeight) Points() int {
	switch w {
	case TaskWeightMedium:
		return 2
	case TaskWeightHeavy:
		return 3
	default:
		return 1
	}
}

// PhaseUnassigned is the timeline band for tasks without a phase.
const PhaseUnassigned = "Unassigned"

// ProjectPhases are the standard phase bands in timeline order.
var ProjectPhases = []string{
	"Planning & Analysis",
	"Designing",
	"Implementation",
	"Testing/QA",
	"Deployment",
}

type Task struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	ProjectID  uint64         `gorm:"not null;index" json:"project_id"`
	Title      string         `gorm:"not null" json:"title"`
	Phase      string         `gorm:"type:varchar(100);not null" json:"phase"`
	Weight     TaskWeight     `gorm:"type:varchar(20);not null;default:'light'" json:"weight"`
	Status     TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	StartDate  Date           `json:"startDate"`
	TargetDate Date           `json:"targetDate"`
	EndDate    *Date          `json:"endDate"`
	Color      string         `gorm:"type:varchar(20)" json:"color"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project   Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignees []TaskAssignee `gorm:"foreignKey:TaskID" json:"-"`

	// Denormalized assignee views kept in lockstep by the sync layer
	// and populated by the with-assignees queries.
	AssigneeIDs     []uint64    `gorm:"-" json:"assigneeIds"`
	AssigneeDetails []Developer `gorm:"-" json:"assignees"`
}

// PhaseBand returns the timeline band the task belongs to.
func (t *Task) PhaseBand() string {
	if t.Phase == "" {
		return PhaseUnassigned
	}
	return t.Phase
}

// DurationDays returns the planned duration in days.
func (t *Task) DurationDays() int {
	return int(t.TargetDate.Time().Sub(t.StartDate.Time()).Hours() / 24)
}

// HasAssignee reports whether the developer is in the assignee id list.
func (t *Task) HasAssignee(developerID uint64) bool {
	for _, id := range t.AssigneeIDs {
		if id == developerID {
			return true
		}
	}
	return false
}
