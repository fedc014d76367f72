package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtrackhq/statusboard/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	tasks    []models.Task
	batches  [][]BatchRecord
	batchErr error
	// When set, SubmitBatch blocks until the channel is closed.
	gate chan struct{}

	created []models.Task
	deleted []uint64
	nextID  uint64
}

func (f *fakeStore) TasksByProject(_ context.Context, projectID uint64) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) AllTasks(_ context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Task(nil), f.tasks...), nil
}

func (f *fakeStore) SubmitBatch(_ context.Context, records []BatchRecord) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, append([]BatchRecord(nil), records...))
	return nil
}

func (f *fakeStore) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	task.ID = f.nextID + 1000
	f.created = append(f.created, task)
	return task, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeStore) lastBatch() []BatchRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}

type fakeTimer struct{ stopped bool }

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	timer *fakeTimer
	fire  func()
	delay time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = &fakeTimer{}
	c.fire = f
	c.delay = d
	return c.timer
}

// fireIdle simulates the idle timer elapsing.
func (c *fakeClock) fireIdle() {
	c.mu.Lock()
	fire := c.fire
	timer := c.timer
	c.mu.Unlock()
	if fire != nil && timer != nil && !timer.stopped {
		fire()
	}
}

func seedTasks(n int, projectID uint64) []models.Task {
	tasks := make([]models.Task, 0, n)
	for i := 1; i <= n; i++ {
		tasks = append(tasks, models.Task{
			ID:         uint64(i),
			ProjectID:  projectID,
			Title:      "Task",
			Status:     models.TaskStatusPending,
			Weight:     models.TaskWeightLight,
			StartDate:  models.NewDate(2026, time.March, 2),
			TargetDate: models.NewDate(2026, time.March, 9),
			Color:      "#FF6B6B",
		})
	}
	return tasks
}

func titlePatch(title string) models.TaskPatch {
	return models.TaskPatch{Title: &title}
}

func newLoadedSession(t *testing.T, store *fakeStore, opts Options) *Session {
	t.Helper()
	s := NewSession(store, opts)
	require.NoError(t, s.LoadAllTasks(context.Background()))
	return s
}

func TestUpdateTaskLocallyAppliesImmediately(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := newLoadedSession(t, store, Options{Clock: clock})

	s.UpdateTaskLocally(2, titlePatch("renamed"))

	got, ok := s.Cache().Get(2)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, s.HasPendingChanges())
	assert.Equal(t, 1, s.PendingCount())
	assert.Zero(t, store.batchCount(), "no flush before a trigger")
}

func TestUpdateUnknownTaskIsIgnored(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(2, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(99, titlePatch("ghost"))

	assert.False(t, s.HasPendingChanges())
}

func TestLedgerCoalescesEditsPerTask(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	status := models.TaskStatusInProgress
	s.UpdateTaskLocally(1, titlePatch("first"))
	s.UpdateTaskLocally(1, models.TaskPatch{Status: &status})
	s.UpdateTaskLocally(1, titlePatch("second"))

	assert.Equal(t, 1, s.PendingCount())

	require.NoError(t, s.SaveAllChanges(context.Background()))
	batch := store.lastBatch()
	require.Len(t, batch, 1)
	assert.Equal(t, uint64(1), batch[0].ID)
	require.NotNil(t, batch[0].Title)
	assert.Equal(t, "second", *batch[0].Title)
	require.NotNil(t, batch[0].Status)
	assert.Equal(t, models.TaskStatusInProgress, *batch[0].Status)
	assert.Nil(t, batch[0].Weight, "untouched fields stay absent")
}

func TestThresholdTriggersAutomaticFlush(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(6, 1)}
	s := newLoadedSession(t, store, Options{FlushThreshold: 5, Clock: &fakeClock{now: time.Unix(1000, 0)}})

	done := make(chan FlushNotice, 1)
	s.OnFlushCompleted(func(n FlushNotice) { done <- n })

	for i := uint64(1); i <= 4; i++ {
		s.UpdateTaskLocally(i, titlePatch("edit"))
	}
	assert.Zero(t, store.batchCount(), "below threshold")

	s.UpdateTaskLocally(5, titlePatch("edit"))

	select {
	case notice := <-done:
		assert.Equal(t, 5, notice.Records)
	case <-time.After(2 * time.Second):
		t.Fatal("threshold flush did not complete")
	}

	batch := store.lastBatch()
	require.Len(t, batch, 5)
	// First-edit order is preserved across the batch.
	for i, rec := range batch {
		assert.Equal(t, uint64(i+1), rec.ID)
	}
	assert.False(t, s.HasPendingChanges())
}

func TestIdleTimerFlushes(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := newLoadedSession(t, store, Options{IdleFlushAfter: 5 * time.Minute, Clock: clock})

	s.UpdateTaskLocally(1, titlePatch("edit"))
	assert.Equal(t, 5*time.Minute, clock.delay)
	assert.Zero(t, store.batchCount())

	clock.fireIdle()

	assert.Equal(t, 1, store.batchCount())
	assert.False(t, s.HasPendingChanges())
}

func TestEditRestartsIdleTimer(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := newLoadedSession(t, store, Options{Clock: clock})

	s.UpdateTaskLocally(1, titlePatch("one"))
	first := clock.timer
	s.UpdateTaskLocally(2, titlePatch("two"))

	assert.True(t, first.stopped, "earlier timer cancelled")
	assert.NotSame(t, first, clock.timer)
}

func TestManualSaveDoesNotNotifyListeners(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	notified := make(chan FlushNotice, 1)
	s.OnFlushCompleted(func(n FlushNotice) { notified <- n })

	s.UpdateTaskLocally(1, titlePatch("edit"))
	require.NoError(t, s.SaveAllChanges(context.Background()))

	assert.Equal(t, 1, store.batchCount())
	select {
	case <-notified:
		t.Fatal("manual save must not notify auto-save listeners")
	default:
	}
}

func TestSaveWithEmptyLedgerIsNoop(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	require.NoError(t, s.SaveAllChanges(context.Background()))
	assert.Zero(t, store.batchCount())
}

func TestFlushFailureRetainsLedger(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(1, titlePatch("edit"))
	store.batchErr = errors.New("boom")

	err := s.SaveAllChanges(context.Background())
	require.Error(t, err)
	assert.True(t, s.HasPendingChanges(), "failed flush keeps edits for retry")

	store.batchErr = nil
	require.NoError(t, s.SaveAllChanges(context.Background()))
	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, 1, store.batchCount())
}

func TestEditDuringFlushSurvives(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(1, titlePatch("snapshot"))

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	flushDone := make(chan error, 1)
	go func() { flushDone <- s.SaveAllChanges(context.Background()) }()

	// Wait for the flush goroutine to take its snapshot and block.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.saving
	}, time.Second, time.Millisecond)

	s.UpdateTaskLocally(1, titlePatch("post-snapshot"))

	store.mu.Lock()
	store.gate = nil
	store.mu.Unlock()
	close(gate)
	require.NoError(t, <-flushDone)

	// The in-flight edit outlives the completed flush.
	assert.Equal(t, 1, s.PendingCount())
	require.NoError(t, s.SaveAllChanges(context.Background()))
	batch := store.lastBatch()
	require.Len(t, batch, 1)
	require.NotNil(t, batch[0].Title)
	assert.Equal(t, "post-snapshot", *batch[0].Title)
}

func TestConcurrentSaveIsSingleFlight(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(1, titlePatch("edit"))

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	flushDone := make(chan error, 1)
	go func() { flushDone <- s.SaveAllChanges(context.Background()) }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.saving
	}, time.Second, time.Millisecond)

	// A second save while one is in flight is a no-op, not a queue.
	require.NoError(t, s.SaveAllChanges(context.Background()))

	store.mu.Lock()
	store.gate = nil
	store.mu.Unlock()
	close(gate)
	require.NoError(t, <-flushDone)
	assert.Equal(t, 1, store.batchCount())
}

func TestDiscardChangesReloads(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(3, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(1, titlePatch("abandoned"))
	require.NoError(t, s.DiscardChanges(context.Background()))

	assert.False(t, s.HasPendingChanges())
	got, ok := s.Cache().Get(1)
	require.True(t, ok)
	assert.Equal(t, "Task", got.Title, "cache restored from store")
	assert.Zero(t, store.batchCount(), "discard never flushes")
}

func TestLoadProjectScopesCacheAndResetsLedger(t *testing.T) {
	tasks := seedTasks(2, 1)
	tasks = append(tasks, models.Task{
		ID: 10, ProjectID: 2, Title: "Other",
		StartDate:  models.NewDate(2026, time.April, 1),
		TargetDate: models.NewDate(2026, time.April, 8),
	})
	store := &fakeStore{tasks: tasks}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	s.UpdateTaskLocally(1, titlePatch("edit"))
	require.NoError(t, s.LoadProject(context.Background(), 2))

	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, 1, s.Cache().Len())
	_, ok := s.Cache().Get(10)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), s.Cache().Scope().ProjectID())
}

func TestCreateAndDeleteBypassLedger(t *testing.T) {
	store := &fakeStore{tasks: seedTasks(2, 1)}
	s := newLoadedSession(t, store, Options{Clock: &fakeClock{now: time.Unix(1000, 0)}})

	created, err := s.CreateTask(context.Background(), models.Task{
		ProjectID:  1,
		Title:      "New",
		StartDate:  models.NewDate(2026, time.May, 4),
		TargetDate: models.NewDate(2026, time.May, 11),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	_, ok := s.Cache().Get(created.ID)
	assert.True(t, ok)
	assert.False(t, s.HasPendingChanges(), "creation is not a pending change")

	s.UpdateTaskLocally(1, titlePatch("edit"))
	require.NoError(t, s.DeleteTask(context.Background(), 1))
	assert.False(t, s.HasPendingChanges(), "deleting drops the task's pending edits")
	_, ok = s.Cache().Get(1)
	assert.False(t, ok)
	assert.Equal(t, []uint64{1}, store.deleted)
}
