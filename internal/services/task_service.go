package services

import (
	"errors"
	"fmt"

	"github.com/devtrackhq/statusboard/internal/constants"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	"github.com/devtrackhq/statusboard/internal/timeline"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrInvalidStatus       = errors.New("invalid task status")
	ErrInvalidWeight       = errors.New("invalid task weight")
	ErrInvalidDateRange    = errors.New("start date must not be after target date")
	ErrNoDeveloperIDs      = errors.New("at least one developer ID is required")
	ErrInvalidTaskAssignee = errors.New("one or more developers do not exist")
)

// TaskService handles task business logic: validation, persistence,
// audit rows and change-event publication.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	logRepo     repository.ChangeLogRepository
	bus         *events.Bus
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, logRepo repository.ChangeLogRepository, bus *events.Bus) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		logRepo:     logRepo,
		bus:         bus,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	Title       string
	Phase       string
	Weight      models.TaskWeight
	Status      models.TaskStatus
	StartDate   models.Date
	TargetDate  models.Date
	EndDate     *models.Date
	Color       string
	AssigneeIDs []uint64
	ActorID     uint64
}

// BulkTaskUpdate is one sparse row of a bulk save.
type BulkTaskUpdate struct {
	ID uint64 `json:"id" binding:"required"`
	models.TaskPatch
}

// ListTasks returns tasks matching the filter
func (s *TaskService) ListTasks(filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// TasksByProject returns a project's tasks with assignee views
func (s *TaskService) TasksByProject(projectID uint64) ([]models.Task, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	tasks, err := s.taskRepo.ListByProjectWithAssignees(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, nil
}

// AllTasks returns every task with assignee views
func (s *TaskService) AllTasks() ([]models.Task, error) {
	tasks, err := s.taskRepo.ListAllWithAssignees()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignees", "Assignees.Developer")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask creates a task with validation, assigns any given
// developers, and broadcasts the creation.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	if _, err := s.projectRepo.FindByID(input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify project: %w", err)
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Weight == "" {
		input.Weight = models.TaskWeightLight
	}
	if !input.Weight.Valid() {
		return nil, ErrInvalidWeight
	}
	if !input.StartDate.IsZero() && !input.TargetDate.IsZero() && input.StartDate.After(input.TargetDate) {
		return nil, ErrInvalidDateRange
	}
	if input.Color == "" {
		input.Color = timeline.RandomBarColor()
	}

	task := &models.Task{
		ProjectID:  input.ProjectID,
		Title:      input.Title,
		Phase:      input.Phase,
		Weight:     input.Weight,
		Status:     input.Status,
		StartDate:  input.StartDate,
		TargetDate: input.TargetDate,
		EndDate:    input.EndDate,
		Color:      input.Color,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(input.AssigneeIDs) > 0 {
		ids := uniqueUint64(input.AssigneeIDs)
		count, err := s.taskRepo.CountDevelopersByIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("failed to verify developers: %w", err)
		}
		if int(count) != len(ids) {
			return nil, ErrInvalidTaskAssignee
		}
		if err := s.taskRepo.AddAssignees(task.ID, ids); err != nil {
			return nil, fmt.Errorf("failed to assign developers: %w", err)
		}
	}

	created, err := s.taskRepo.FindByID(task.ID, "Assignees", "Assignees.Developer")
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.logChange(input.ActorID, models.ChangeActionCreate, created.ID, "created task "+created.Title)
	s.bus.Publish(events.TaskCreated{Task: *created})
	return created, nil
}

// UpdateTask applies a sparse patch to one task and broadcasts it.
func (s *TaskService) UpdateTask(taskID uint64, patch models.TaskPatch, actorID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if patch.Weight != nil && !patch.Weight.Valid() {
		return nil, ErrInvalidWeight
	}

	merged := *task
	patch.ApplyTo(&merged)
	if !merged.StartDate.IsZero() && !merged.TargetDate.IsZero() && merged.StartDate.After(merged.TargetDate) {
		return nil, ErrInvalidDateRange
	}

	if _, err := s.taskRepo.UpdateFields(taskID, patch.Columns()); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(taskID, "Assignees", "Assignees.Developer")
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.logChange(actorID, models.ChangeActionUpdate, taskID, "updated task "+updated.Title)
	s.bus.Publish(events.TaskUpdated{TaskID: taskID, Patch: patch})
	return updated, nil
}

// BulkUpdate applies a batch of sparse updates, broadcasting one
// update event per affected row and returning the refreshed rows.
// Rows whose task no longer exists are skipped rather than failing
// the batch.
func (s *TaskService) BulkUpdate(updates []BulkTaskUpdate, actorID uint64) ([]models.Task, error) {
	refreshed := make([]models.Task, 0, len(updates))
	for _, u := range updates {
		if u.TaskPatch.IsEmpty() {
			continue
		}
		if u.Status != nil && !u.Status.Valid() {
			return refreshed, ErrInvalidStatus
		}
		if u.Weight != nil && !u.Weight.Valid() {
			return refreshed, ErrInvalidWeight
		}

		affected, err := s.taskRepo.UpdateFields(u.ID, u.TaskPatch.Columns())
		if err != nil {
			return refreshed, fmt.Errorf("failed to update task %d: %w", u.ID, err)
		}
		if affected == 0 {
			continue
		}

		task, err := s.taskRepo.FindByID(u.ID, "Assignees", "Assignees.Developer")
		if err != nil {
			return refreshed, fmt.Errorf("failed to reload task %d: %w", u.ID, err)
		}
		refreshed = append(refreshed, *task)

		s.logChange(actorID, models.ChangeActionUpdate, u.ID, "bulk-updated task")
		s.bus.Publish(events.TaskUpdated{TaskID: u.ID, Patch: u.TaskPatch})
	}
	return refreshed, nil
}

// DeleteTask deletes a task and broadcasts the removal.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logChange(actorID, models.ChangeActionDelete, taskID, "deleted task "+task.Title)
	s.bus.Publish(events.TaskDeleted{TaskID: taskID})
	return nil
}

// AssignDevelopers assigns developers to a task with validation,
// broadcasting one event per developer.
func (s *TaskService) AssignDevelopers(taskID uint64, developerIDs []uint64, actorID uint64) error {
	if len(developerIDs) == 0 {
		return ErrNoDeveloperIDs
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	ids := uniqueUint64(developerIDs)
	count, err := s.taskRepo.CountDevelopersByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to verify developers: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidTaskAssignee
	}

	if err := s.taskRepo.AddAssignees(task.ID, ids); err != nil {
		return fmt.Errorf("failed to assign developers: %w", err)
	}

	for _, id := range ids {
		s.logChange(actorID, models.ChangeActionUpdate, taskID, "assigned developer to task")
		s.bus.Publish(events.TaskAssigneeAdded{TaskID: taskID, DeveloperID: id})
	}
	return nil
}

// UnassignDevelopers removes developer assignments from a task.
func (s *TaskService) UnassignDevelopers(taskID uint64, developerIDs []uint64, actorID uint64) error {
	if len(developerIDs) == 0 {
		return ErrNoDeveloperIDs
	}

	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	ids := uniqueUint64(developerIDs)
	if err := s.taskRepo.RemoveAssignees(taskID, ids); err != nil {
		return fmt.Errorf("failed to unassign developers: %w", err)
	}

	for _, id := range ids {
		s.logChange(actorID, models.ChangeActionUpdate, taskID, "unassigned developer from task")
		s.bus.Publish(events.TaskAssigneeRemoved{TaskID: taskID, DeveloperID: id})
	}
	return nil
}

func (s *TaskService) logChange(actorID uint64, action models.ChangeAction, entityID uint64, summary string) {
	if s.logRepo == nil {
		return
	}
	entry := &models.ChangeLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: constants.EntityTask,
		EntityID:   entityID,
		Summary:    summary,
	}
	// Audit writes never block the operation they describe.
	_ = s.logRepo.Create(entry)
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
