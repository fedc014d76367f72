// Package events defines the change notifications that flow between
// the backend, connected clients and in-process sync sessions. The
// event set is a closed group of variants dispatched by type switch,
// so a handler that forgets a kind fails review instead of failing
// silently at runtime.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/devtrackhq/statusboard/internal/models"
)

// Wire event names.
const (
	NameTaskCreated      = "task:created"
	NameTaskUpdated      = "task:updated"
	NameTaskDeleted      = "task:deleted"
	NameAssigneeAdded    = "taskAssignee:added"
	NameAssigneeRemoved  = "taskAssignee:removed"
	NameProjectCreated   = "project:created"
	NameProjectUpdated   = "project:updated"
	NameProjectDeleted   = "project:deleted"
	NameDeveloperUpdated = "developer:updated"
)

// Event is a change notification. The set of implementations is
// closed; consumers dispatch with a type switch.
type Event interface {
	// Name returns the wire event name.
	Name() string

	isEvent()
}

// TaskCreated announces a newly persisted task.
type TaskCreated struct {
	Task models.Task `json:"task"`
}

// TaskUpdated announces a sparse update to an existing task.
type TaskUpdated struct {
	TaskID uint64           `json:"id"`
	Patch  models.TaskPatch `json:"patch"`
}

// TaskDeleted announces a task removal.
type TaskDeleted struct {
	TaskID uint64 `json:"id"`
}

// TaskAssigneeAdded announces a developer being assigned to a task.
type TaskAssigneeAdded struct {
	TaskID      uint64 `json:"task_id"`
	DeveloperID uint64 `json:"developer_id"`
}

// TaskAssigneeRemoved announces a developer being unassigned.
type TaskAssigneeRemoved struct {
	TaskID      uint64 `json:"task_id"`
	DeveloperID uint64 `json:"developer_id"`
}

// ProjectCreated announces a new project.
type ProjectCreated struct {
	Project models.Project `json:"project"`
}

// ProjectUpdated announces a project change.
type ProjectUpdated struct {
	Project models.Project `json:"project"`
}

// ProjectDeleted announces a project removal.
type ProjectDeleted struct {
	ProjectID uint64 `json:"id"`
}

// DeveloperUpdated announces a developer profile change.
type DeveloperUpdated struct {
	Developer models.Developer `json:"developer"`
}

func (TaskCreated) Name() string         { return NameTaskCreated }
func (TaskUpdated) Name() string         { return NameTaskUpdated }
func (TaskDeleted) Name() string         { return NameTaskDeleted }
func (TaskAssigneeAdded) Name() string   { return NameAssigneeAdded }
func (TaskAssigneeRemoved) Name() string { return NameAssigneeRemoved }
func (ProjectCreated) Name() string      { return NameProjectCreated }
func (ProjectUpdated) Name() string      { return NameProjectUpdated }
func (ProjectDeleted) Name() string      { return NameProjectDeleted }
func (DeveloperUpdated) Name() string    { return NameDeveloperUpdated }

func (TaskCreated) isEvent()         {}
func (TaskUpdated) isEvent()         {}
func (TaskDeleted) isEvent()         {}
func (TaskAssigneeAdded) isEvent()   {}
func (TaskAssigneeRemoved) isEvent() {}
func (ProjectCreated) isEvent()      {}
func (ProjectUpdated) isEvent()      {}
func (ProjectDeleted) isEvent()      {}
func (DeveloperUpdated) isEvent()    {}

// Envelope is the wire form of an event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// taskUpdatedWire flattens id and patch fields into one payload
// object, matching how the bulk endpoint rebroadcasts updated rows.
type taskUpdatedWire struct {
	ID uint64 `json:"id"`
	models.TaskPatch
}

// Encode wraps an event into its wire envelope.
func Encode(e Event) (Envelope, error) {
	var payload interface{}
	switch ev := e.(type) {
	case TaskCreated:
		payload = ev.Task
	case TaskUpdated:
		payload = taskUpdatedWire{ID: ev.TaskID, TaskPatch: ev.Patch}
	case ProjectCreated:
		payload = ev.Project
	case ProjectUpdated:
		payload = ev.Project
	case DeveloperUpdated:
		payload = ev.Developer
	default:
		payload = e
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	return Envelope{Event: e.Name(), Payload: raw}, nil
}

// Decode parses a wire envelope back into a typed event. Unknown
// event names are an error so transport typos surface immediately.
func Decode(env Envelope) (Event, error) {
	switch env.Event {
	case NameTaskCreated:
		var e TaskCreated
		return e, unmarshalPayload(env, &e.Task)
	case NameTaskUpdated:
		var w taskUpdatedWire
		if err := unmarshalPayload(env, &w); err != nil {
			return nil, err
		}
		return TaskUpdated{TaskID: w.ID, Patch: w.TaskPatch}, nil
	case NameTaskDeleted:
		var e TaskDeleted
		return e, unmarshalPayload(env, &e)
	case NameAssigneeAdded:
		var e TaskAssigneeAdded
		return e, unmarshalPayload(env, &e)
	case NameAssigneeRemoved:
		var e TaskAssigneeRemoved
		return e, unmarshalPayload(env, &e)
	case NameProjectCreated:
		var e ProjectCreated
		return e, unmarshalPayload(env, &e.Project)
	case NameProjectUpdated:
		var e ProjectUpdated
		return e, unmarshalPayload(env, &e.Project)
	case NameProjectDeleted:
		var e ProjectDeleted
		return e, unmarshalPayload(env, &e)
	case NameDeveloperUpdated:
		var e DeveloperUpdated
		return e, unmarshalPayload(env, &e.Developer)
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

func unmarshalPayload(env Envelope, v interface{}) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Event, err)
	}
	return nil
}
