package services

import (
	"context"

	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/sync"
)

// SyncGateway adapts the service layer to the session store surface, so
// a board session can load, batch-save, create and delete tasks without
// knowing about repositories or event publication. ActorID attributes
// the session's writes in the change log.
type SyncGateway struct {
	tasks   *TaskService
	ActorID uint64
}

// NewSyncGateway creates a gateway for one authenticated session.
func NewSyncGateway(tasks *TaskService, actorID uint64) *SyncGateway {
	return &SyncGateway{tasks: tasks, ActorID: actorID}
}

// TasksByProject loads a project's tasks with assignee views.
func (g *SyncGateway) TasksByProject(_ context.Context, projectID uint64) ([]models.Task, error) {
	return g.tasks.TasksByProject(projectID)
}

// AllTasks loads the unscoped task set with assignee views.
func (g *SyncGateway) AllTasks(_ context.Context) ([]models.Task, error) {
	return g.tasks.AllTasks()
}

// SubmitBatch applies a flushed ledger as one bulk update.
func (g *SyncGateway) SubmitBatch(_ context.Context, records []sync.BatchRecord) error {
	updates := make([]BulkTaskUpdate, 0, len(records))
	for _, r := range records {
		updates = append(updates, BulkTaskUpdate{ID: r.ID, TaskPatch: r.TaskPatch})
	}
	_, err := g.tasks.BulkUpdate(updates, g.ActorID)
	return err
}

// CreateTask persists a new task outside the batch path.
func (g *SyncGateway) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	created, err := g.tasks.CreateTask(CreateTaskInput{
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Phase:       task.Phase,
		Weight:      task.Weight,
		Status:      task.Status,
		StartDate:   task.StartDate,
		TargetDate:  task.TargetDate,
		EndDate:     task.EndDate,
		Color:       task.Color,
		AssigneeIDs: task.AssigneeIDs,
		ActorID:     g.ActorID,
	})
	if err != nil {
		return models.Task{}, err
	}
	return *created, nil
}

// DeleteTask removes a task.
func (g *SyncGateway) DeleteTask(_ context.Context, id uint64) error {
	return g.tasks.DeleteTask(id, g.ActorID)
}
