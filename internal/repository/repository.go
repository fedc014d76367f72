package repository

import (
	"github.com/devtrackhq/statusboard/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListByProjectWithAssignees returns a project's tasks with the
	// denormalized assignee views populated
	ListByProjectWithAssignees(projectID uint64) ([]models.Task, error)

	// ListAllWithAssignees returns every task with assignee views populated
	ListAllWithAssignees() ([]models.Task, error)

	// Update saves a full task row
	Update(task *models.Task) error

	// UpdateFields applies a sparse column update to one task and
	// reports the number of affected rows
	UpdateFields(id uint64, columns map[string]interface{}) (int64, error)

	// Delete soft deletes a task and its assignments
	Delete(id uint64) error

	// AddAssignees assigns developers to a task, reviving soft-deleted rows
	AddAssignees(taskID uint64, developerIDs []uint64) error

	// RemoveAssignees removes developer assignments from a task
	RemoveAssignees(taskID uint64, developerIDs []uint64) error

	// CountDevelopersByIDs counts how many of the given developer IDs exist
	CountDevelopersByIDs(developerIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID           *uint64
	Status              *models.TaskStatus
	Phase               *string
	AssignedDeveloperID *uint64
	SortByStartDate     bool
	Page                int
	PageSize            int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List returns all projects
	List() ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and its tasks
	Delete(id uint64) error
}

// DeveloperRepository defines the interface for developer data access
type DeveloperRepository interface {
	// Create creates a new developer
	Create(dev *models.Developer) error

	// FindByID finds a developer by ID
	FindByID(id uint64) (*models.Developer, error)

	// FindByUsername finds a developer by username
	FindByUsername(username string) (*models.Developer, error)

	// List returns all developers with their roles
	List() ([]models.Developer, error)

	// Update updates a developer
	Update(dev *models.Developer) error

	// Delete soft deletes a developer
	Delete(id uint64) error

	// SetRoles replaces a developer's role assignments
	SetRoles(developerID uint64, roleIDs []uint64) error

	// ListRoles returns all known roles
	ListRoles() ([]models.Role, error)
}

// ChangeLogRepository defines the interface for audit log access
type ChangeLogRepository interface {
	// Create appends a change log row
	Create(entry *models.ChangeLog) error

	// List returns change log rows, newest first
	List(filter ChangeLogFilter) ([]models.ChangeLog, int64, error)
}

// ChangeLogFilter holds filtering options for the change log
type ChangeLogFilter struct {
	EntityType *string
	ActorID    *uint64
	Page       int
	PageSize   int
}
