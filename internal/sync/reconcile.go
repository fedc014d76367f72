package sync

import (
	"context"

	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
)

// DeveloperDirectory resolves developer details for the denormalized
// assignee list when an assignee-added event arrives.
type DeveloperDirectory interface {
	DeveloperByID(id uint64) (models.Developer, bool)
}

// Reconciler applies remote change events to a session's task cache
// without clobbering in-flight local edits.
//
// Known limitation, kept deliberately: a remote update to a task with
// any pending local edit is suppressed entirely, so a teammate's
// concurrent change to an untouched field is not merged until this
// session's flush overwrites it. Last-local-edit-wins per session.
type Reconciler struct {
	session   *Session
	directory DeveloperDirectory
}

// NewReconciler creates a reconciler for the session. directory may
// be nil; assignee detail rows are then left to the next full fetch.
func NewReconciler(session *Session, directory DeveloperDirectory) *Reconciler {
	return &Reconciler{session: session, directory: directory}
}

// Run applies events from the subscription until it closes or the
// context is cancelled. Per-task ordering follows delivery order.
func (r *Reconciler) Run(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			r.Apply(e)
		}
	}
}

// Apply merges one remote event into the cache. Events for tasks
// outside the current scope are dropped silently; duplicate delivery
// is tolerated for every kind.
func (r *Reconciler) Apply(e events.Event) {
	cache := r.session.Cache()

	switch ev := e.(type) {
	case events.TaskCreated:
		task := ev.Task
		if !cache.Scope().Contains(&task) {
			return
		}
		cache.AppendIfAbsent(task)

	case events.TaskUpdated:
		// Local unsaved edits win over racing broadcasts until they
		// are flushed or discarded.
		if r.session.hasPending(ev.TaskID) {
			return
		}
		cache.Patch(ev.TaskID, ev.Patch)

	case events.TaskDeleted:
		// A remote delete always wins, pending edits included.
		cache.Remove(ev.TaskID)
		r.session.dropPending(ev.TaskID)

	case events.TaskAssigneeAdded:
		dev := models.Developer{ID: ev.DeveloperID}
		if r.directory != nil {
			if d, ok := r.directory.DeveloperByID(ev.DeveloperID); ok {
				dev = d
			}
		}
		cache.AddAssignee(ev.TaskID, dev)

	case events.TaskAssigneeRemoved:
		cache.RemoveAssignee(ev.TaskID, ev.DeveloperID)

	case events.ProjectCreated, events.ProjectUpdated, events.ProjectDeleted,
		events.DeveloperUpdated:
		// Project and developer events are handled by their own
		// stores; the task reconciler ignores them.
	}
}
