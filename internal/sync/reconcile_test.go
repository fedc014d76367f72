package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
)

type fakeDirectory map[uint64]models.Developer

func (d fakeDirectory) DeveloperByID(id uint64) (models.Developer, bool) {
	dev, ok := d[id]
	return dev, ok
}

func newReconciledSession(t *testing.T, tasks []models.Task) (*Session, *Reconciler, *fakeStore) {
	t.Helper()
	store := &fakeStore{tasks: tasks}
	s := NewSession(store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})
	require.NoError(t, s.LoadAllTasks(context.Background()))
	dir := fakeDirectory{5: {ID: 5, Name: "Kai", Username: "kai", Color: "#1A535C"}}
	return s, NewReconciler(s, dir), store
}

func TestRemoteUpdateAppliesWhenNoPendingEdit(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(2, 1))

	title := "remote title"
	r.Apply(events.TaskUpdated{TaskID: 1, Patch: models.TaskPatch{Title: &title}})

	got, _ := s.Cache().Get(1)
	assert.Equal(t, "remote title", got.Title)
}

func TestRemoteUpdateSuppressedWhilePending(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(2, 1))

	local := models.TaskStatusInProgress
	s.UpdateTaskLocally(1, models.TaskPatch{Status: &local})

	remoteTitle := "remote title"
	remoteStatus := models.TaskStatusCancelled
	r.Apply(events.TaskUpdated{TaskID: 1, Patch: models.TaskPatch{
		Title:  &remoteTitle,
		Status: &remoteStatus,
	}})

	got, _ := s.Cache().Get(1)
	// The whole remote patch is suppressed, touched fields or not.
	assert.Equal(t, "Task", got.Title)
	assert.Equal(t, models.TaskStatusInProgress, got.Status)
}

func TestRemoteDeleteWinsOverPendingEdit(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(2, 1))

	s.UpdateTaskLocally(1, titlePatch("doomed edit"))
	r.Apply(events.TaskDeleted{TaskID: 1})

	_, ok := s.Cache().Get(1)
	assert.False(t, ok)
	assert.False(t, s.HasPendingChanges(), "ledger entry removed with the task")
}

func TestRemoteCreateRespectsScope(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(1, 1)}
	s := NewSession(store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})
	require.NoError(t, s.LoadProject(context.Background(), 1))
	r := NewReconciler(s, nil)

	inScope := boardTask(50, 1, "mine")
	outOfScope := boardTask(51, 2, "someone else's project")
	r.Apply(events.TaskCreated{Task: inScope})
	r.Apply(events.TaskCreated{Task: outOfScope})
	r.Apply(events.TaskCreated{Task: inScope}) // duplicate delivery

	_, ok := s.Cache().Get(50)
	assert.True(t, ok)
	_, ok = s.Cache().Get(51)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Cache().Len())
}

func TestAssigneeEventsResolveDirectoryDetails(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(1, 1))

	r.Apply(events.TaskAssigneeAdded{TaskID: 1, DeveloperID: 5})
	r.Apply(events.TaskAssigneeAdded{TaskID: 1, DeveloperID: 5}) // duplicate

	got, _ := s.Cache().Get(1)
	require.Len(t, got.AssigneeDetails, 1)
	assert.Equal(t, "kai", got.AssigneeDetails[0].Username)

	// Unknown developer still lands as a bare id entry.
	r.Apply(events.TaskAssigneeAdded{TaskID: 1, DeveloperID: 9})
	got, _ = s.Cache().Get(1)
	assert.Equal(t, []uint64{5, 9}, got.AssigneeIDs)

	r.Apply(events.TaskAssigneeRemoved{TaskID: 1, DeveloperID: 5})
	got, _ = s.Cache().Get(1)
	assert.Equal(t, []uint64{9}, got.AssigneeIDs)
}

func TestEventsForUnknownTasksAreDropped(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(1, 1))

	r.Apply(events.TaskUpdated{TaskID: 404, Patch: titlePatch("ghost")})
	r.Apply(events.TaskDeleted{TaskID: 404})
	r.Apply(events.TaskAssigneeAdded{TaskID: 404, DeveloperID: 5})

	assert.Equal(t, 1, s.Cache().Len())
}

func TestRunAppliesSubscribedEvents(t *testing.T) {
	s, r, _ := newReconciledSession(t, seedTasks(1, 1))

	bus := events.NewBus()
	sub := bus.Subscribe(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx, sub)
		close(done)
	}()

	title := "via bus"
	bus.Publish(events.TaskUpdated{TaskID: 1, Patch: models.TaskPatch{Title: &title}})

	assert.Eventually(t, func() bool {
		got, _ := s.Cache().Get(1)
		return got.Title == "via bus"
	}, time.Second, time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on bus close")
	}
}
