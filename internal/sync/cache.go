// Package sync implements the client-session side of the status
// board: an in-memory mirror of the viewed task set, a ledger of
// unsaved local edits with batched flushing, and reconciliation of
// remote change events against that local state.
package sync

import (
	stdsync "sync"

	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/timeline"
)

// Scope identifies the task subset a session is viewing: all tasks,
// or the tasks of one project.
type Scope struct {
	projectID uint64
}

// ScopeAll covers every task.
func ScopeAll() Scope { return Scope{} }

// ScopeProject covers the tasks of one project.
func ScopeProject(projectID uint64) Scope { return Scope{projectID: projectID} }

// IsAll reports whether the scope is unscoped.
func (s Scope) IsAll() bool { return s.projectID == 0 }

// ProjectID returns the scoped project id, or 0 for the all scope.
func (s Scope) ProjectID() uint64 { return s.projectID }

// Contains reports whether a task belongs to the scope.
func (s Scope) Contains(t *models.Task) bool {
	return s.IsAll() || t.ProjectID == s.projectID
}

// TaskCache is the session-owned mirror of the currently viewed task
// set, keyed by task id. Every mutation is visible to readers as soon
// as the call returns; the cache never batches or defers.
type TaskCache struct {
	mu    stdsync.RWMutex
	scope Scope
	order []uint64
	byID  map[uint64]*models.Task
}

// NewTaskCache creates an empty cache with the all-tasks scope.
func NewTaskCache() *TaskCache {
	return &TaskCache{byID: make(map[uint64]*models.Task)}
}

// Scope returns the cache's current scope.
func (c *TaskCache) Scope() Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// Replace swaps the entire cache contents for a freshly fetched task
// set and switches the scope. Tasks without a display color get a
// random one, and nil assignee slices are normalized to empty.
func (c *TaskCache) Replace(scope Scope, tasks []models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scope = scope
	c.order = c.order[:0]
	c.byID = make(map[uint64]*models.Task, len(tasks))
	for i := range tasks {
		t := tasks[i]
		normalizeTask(&t)
		if _, exists := c.byID[t.ID]; exists {
			continue
		}
		c.order = append(c.order, t.ID)
		c.byID[t.ID] = &t
	}
}

// Get returns a copy of the task with the given id.
func (c *TaskCache) Get(id uint64) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return models.Task{}, false
	}
	return cloneTask(t), true
}

// Len returns the number of cached tasks.
func (c *TaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Tasks returns a copy of all cached tasks in insertion order.
func (c *TaskCache) Tasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneTask(c.byID[id]))
	}
	return out
}

// TasksByPhase groups the cached tasks into timeline bands.
func (c *TaskCache) TasksByPhase() map[string][]models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	grouped := make(map[string][]models.Task)
	for _, id := range c.order {
		t := c.byID[id]
		band := t.PhaseBand()
		grouped[band] = append(grouped[band], cloneTask(t))
	}
	return grouped
}

// Patch shallow-merges a partial update into the matching entry.
// Returns false when the task is not cached.
func (c *TaskCache) Patch(id uint64, patch models.TaskPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[id]
	if !ok {
		return false
	}
	patch.ApplyTo(t)
	return true
}

// Remove drops the task from the cache. Returns false when absent.
func (c *TaskCache) Remove(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// AppendIfAbsent inserts the task unless an entry with the same id
// already exists. Serves both local creation and remote create events,
// so a client's own create plus its rebroadcast never yields two
// entries.
func (c *TaskCache) AppendIfAbsent(task models.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[task.ID]; exists {
		return false
	}
	normalizeTask(&task)
	c.order = append(c.order, task.ID)
	c.byID[task.ID] = &task
	return true
}

// AddAssignee adds a developer to the task's assignee id list and, in
// lockstep, to its denormalized detail list. Idempotent; no-op when
// the task is not cached.
func (c *TaskCache) AddAssignee(taskID uint64, dev models.Developer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[taskID]
	if !ok {
		return false
	}
	for _, id := range t.AssigneeIDs {
		if id == dev.ID {
			return false
		}
	}
	t.AssigneeIDs = append(t.AssigneeIDs, dev.ID)
	t.AssigneeDetails = append(t.AssigneeDetails, dev)
	return true
}

// RemoveAssignee removes a developer from both assignee views.
func (c *TaskCache) RemoveAssignee(taskID, developerID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[taskID]
	if !ok {
		return false
	}
	removed := false
	for i, id := range t.AssigneeIDs {
		if id == developerID {
			t.AssigneeIDs = append(t.AssigneeIDs[:i], t.AssigneeIDs[i+1:]...)
			removed = true
			break
		}
	}
	for i := range t.AssigneeDetails {
		if t.AssigneeDetails[i].ID == developerID {
			t.AssigneeDetails = append(t.AssigneeDetails[:i], t.AssigneeDetails[i+1:]...)
			break
		}
	}
	return removed
}

func normalizeTask(t *models.Task) {
	if t.Color == "" {
		t.Color = timeline.RandomBarColor()
	}
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []uint64{}
	}
	if t.AssigneeDetails == nil {
		t.AssigneeDetails = []models.Developer{}
	}
}

func cloneTask(t *models.Task) models.Task {
	out := *t
	out.AssigneeIDs = append([]uint64{}, t.AssigneeIDs...)
	out.AssigneeDetails = append([]models.Developer{}, t.AssigneeDetails...)
	return out
}
