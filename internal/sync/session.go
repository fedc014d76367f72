package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/devtrackhq/statusboard/internal/models"
)

// Defaults for the batch scheduler.
const (
	DefaultFlushThreshold = 5
	DefaultIdleFlushAfter = 5 * time.Minute
)

// Store is the backing-store surface the session depends on. Batch
// records are sparse partial updates, never full task replacements.
type Store interface {
	TasksByProject(ctx context.Context, projectID uint64) ([]models.Task, error)
	AllTasks(ctx context.Context) ([]models.Task, error)
	SubmitBatch(ctx context.Context, records []BatchRecord) error
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id uint64) error
}

// BatchRecord is one ledger entry at flush time: the task id plus
// only the fields that actually changed.
type BatchRecord struct {
	ID uint64 `json:"id"`
	models.TaskPatch
}

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the idle-flush scheduler so tests can
// drive it deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FlushNotice describes a completed automatic flush.
type FlushNotice struct {
	Records int
	At      time.Time
}

// Options tunes a session's batch scheduler.
type Options struct {
	// FlushThreshold is the number of tasks with pending changes that
	// triggers an immediate flush. Defaults to 5.
	FlushThreshold int
	// IdleFlushAfter is how long the session may sit without a new
	// local edit before pending changes are flushed. Defaults to 5m.
	IdleFlushAfter time.Duration
	// Clock defaults to the wall clock.
	Clock Clock
}

// Session owns one client's view of the board: the task cache, the
// pending-change ledger, and the flush scheduling around them. All
// state is session-scoped; convergence with other sessions happens
// only through the store and the change event channel.
type Session struct {
	store Store
	cache *TaskCache
	clock Clock

	flushThreshold int
	idleAfter      time.Duration

	mu          stdsync.Mutex
	ledger      map[uint64]models.TaskPatch
	ledgerOrder []uint64
	ledgerGen   map[uint64]uint64
	gen         uint64
	lastChange  time.Time
	idleTimer   Timer
	saving      bool
	listeners   []func(FlushNotice)
}

// NewSession creates a session over the given store.
func NewSession(store Store, opts Options) *Session {
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = DefaultFlushThreshold
	}
	if opts.IdleFlushAfter <= 0 {
		opts.IdleFlushAfter = DefaultIdleFlushAfter
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Session{
		store:          store,
		cache:          NewTaskCache(),
		clock:          opts.Clock,
		flushThreshold: opts.FlushThreshold,
		idleAfter:      opts.IdleFlushAfter,
		ledger:         make(map[uint64]models.TaskPatch),
		ledgerGen:      make(map[uint64]uint64),
	}
}

// Cache returns the session's task cache.
func (s *Session) Cache() *TaskCache { return s.cache }

// HasPendingChanges reports whether any local edits await a flush.
func (s *Session) HasPendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger) > 0
}

// PendingCount returns the number of tasks with unflushed edits.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

// LoadProject replaces the cache with the project's tasks and resets
// the ledger. Selecting a project replaces the all-tasks view.
func (s *Session) LoadProject(ctx context.Context, projectID uint64) error {
	tasks, err := s.store.TasksByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetch project %d tasks: %w", projectID, err)
	}
	s.cache.Replace(ScopeProject(projectID), tasks)
	s.resetLedger()
	return nil
}

// LoadAllTasks replaces the cache with the unscoped task set and
// resets the ledger.
func (s *Session) LoadAllTasks(ctx context.Context) error {
	tasks, err := s.store.AllTasks(ctx)
	if err != nil {
		return fmt.Errorf("fetch all tasks: %w", err)
	}
	s.cache.Replace(ScopeAll(), tasks)
	s.resetLedger()
	return nil
}

// UpdateTaskLocally applies an optimistic edit: the patch lands in
// the cache immediately and accumulates in the ledger until a flush.
// Reaching the flush threshold starts an automatic flush; otherwise
// the idle timer restarts. No-op when the task is not in the cache.
func (s *Session) UpdateTaskLocally(taskID uint64, patch models.TaskPatch) {
	if patch.IsEmpty() {
		return
	}
	if !s.cache.Patch(taskID, patch) {
		return
	}

	s.mu.Lock()
	existing, had := s.ledger[taskID]
	if !had {
		s.ledgerOrder = append(s.ledgerOrder, taskID)
	}
	s.ledger[taskID] = existing.Merge(patch)
	s.gen++
	s.ledgerGen[taskID] = s.gen
	s.lastChange = s.clock.Now()

	if len(s.ledger) >= s.flushThreshold && !s.saving {
		s.mu.Unlock()
		go s.autoFlush()
		return
	}
	s.rescheduleIdleLocked()
	s.mu.Unlock()
}

// CreateTask persists a new task through the store (outside the batch
// path) and inserts the result into the cache. A missing color is
// assigned before the store sees the task.
func (s *Session) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	if s.cache.Scope().Contains(&created) {
		s.cache.AppendIfAbsent(created)
	}
	return created, nil
}

// DeleteTask removes the task from the store, the cache and the
// ledger.
func (s *Session) DeleteTask(ctx context.Context, id uint64) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.cache.Remove(id)
	s.dropPending(id)
	return nil
}

// SaveAllChanges flushes the ledger as one batched partial-update
// request. A flush already in progress or an empty ledger makes this
// a no-op. On failure the ledger is left intact for retry.
func (s *Session) SaveAllChanges(ctx context.Context) error {
	return s.flush(ctx, false)
}

// DiscardChanges abandons every unflushed edit and reloads the cache
// wholesale from the store for the current scope.
func (s *Session) DiscardChanges(ctx context.Context) error {
	s.mu.Lock()
	s.stopIdleLocked()
	s.clearLedgerLocked()
	s.mu.Unlock()

	scope := s.cache.Scope()
	if scope.IsAll() {
		return s.LoadAllTasks(ctx)
	}
	return s.LoadProject(ctx, scope.ProjectID())
}

// OnFlushCompleted registers a listener invoked after each automatic
// flush (threshold or idle). Manual saves do not notify; their caller
// already knows the outcome. Multiple listeners are supported.
func (s *Session) OnFlushCompleted(fn func(FlushNotice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) autoFlush() {
	// Errors from automatic flushes leave the ledger intact; the next
	// trigger retries.
	_ = s.flush(context.Background(), true)
}

func (s *Session) flush(ctx context.Context, auto bool) error {
	s.mu.Lock()
	if s.saving || len(s.ledger) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.saving = true
	s.stopIdleLocked()

	records := make([]BatchRecord, 0, len(s.ledgerOrder))
	gens := make(map[uint64]uint64, len(s.ledgerOrder))
	for _, id := range s.ledgerOrder {
		patch, ok := s.ledger[id]
		if !ok {
			continue
		}
		records = append(records, BatchRecord{ID: id, TaskPatch: patch})
		gens[id] = s.ledgerGen[id]
	}
	s.mu.Unlock()

	err := s.store.SubmitBatch(ctx, records)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save %d pending changes: %w", len(records), err)
	}

	// Drop exactly what the snapshot captured. Entries edited again
	// while the flush was in flight stay for the next one.
	for id, gen := range gens {
		if s.ledgerGen[id] == gen {
			delete(s.ledger, id)
			delete(s.ledgerGen, id)
		}
	}
	s.compactOrderLocked()
	if len(s.ledger) == 0 {
		s.lastChange = time.Time{}
	}
	notify := auto
	listeners := append([]func(FlushNotice){}, s.listeners...)
	now := s.clock.Now()
	s.mu.Unlock()

	if notify {
		for _, fn := range listeners {
			fn(FlushNotice{Records: len(records), At: now})
		}
	}
	return nil
}

// hasPending reports whether the task has unflushed local edits.
func (s *Session) hasPending(taskID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ledger[taskID]
	return ok
}

// dropPending removes the task's ledger entry, if any.
func (s *Session) dropPending(taskID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[taskID]; !ok {
		return
	}
	delete(s.ledger, taskID)
	delete(s.ledgerGen, taskID)
	s.compactOrderLocked()
	if len(s.ledger) == 0 {
		s.lastChange = time.Time{}
	}
}

func (s *Session) resetLedger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopIdleLocked()
	s.clearLedgerLocked()
}

func (s *Session) clearLedgerLocked() {
	s.ledger = make(map[uint64]models.TaskPatch)
	s.ledgerGen = make(map[uint64]uint64)
	s.ledgerOrder = s.ledgerOrder[:0]
	s.lastChange = time.Time{}
}

func (s *Session) compactOrderLocked() {
	kept := s.ledgerOrder[:0]
	for _, id := range s.ledgerOrder {
		if _, ok := s.ledger[id]; ok {
			kept = append(kept, id)
		}
	}
	s.ledgerOrder = kept
}

func (s *Session) rescheduleIdleLocked() {
	s.stopIdleLocked()
	s.idleTimer = s.clock.AfterFunc(s.idleAfter, func() {
		if s.HasPendingChanges() {
			s.autoFlush()
		}
	})
}

func (s *Session) stopIdleLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}
