// Package tasks tracks asynchronous realization runs in memory. Tasks live
// for a bounded TTL after reaching a terminal state and a periodic sweep
// removes the expired ones; expired tasks are indistinguishable from tasks
// that never existed.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reifyhq/reify/internals/schemas"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrClosed       = errors.New("task manager is closed")
)

// Runner executes one realization run. The auth token and document come from
// the task record; the token is handed to the runner and nowhere else.
type Runner func(ctx context.Context, taskID, authToken string, config map[string]any)

// Manager is the in-memory task store plus the supervisor for background
// runs. All methods are safe for concurrent use.
type Manager struct {
	ttl        time.Duration
	sweepEvery time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.RWMutex
	tasks  map[string]*Task
	closed bool

	sweepOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewManager(ttl, sweepEvery time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if sweepEvery <= 0 {
		sweepEvery = 12 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ttl:        ttl,
		sweepEvery: sweepEvery,
		logger:     logger,
		now:        time.Now,
		tasks:      map[string]*Task{},
		done:       make(chan struct{}),
	}
}

// Create registers a new pending task and returns its identifier. The first
// creation starts the background sweep.
func (m *Manager) Create(authToken string, config map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	id := uuid.NewString()
	now := m.now()
	m.tasks[id] = &Task{
		ID:        id,
		Status:    schemas.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		authToken: authToken,
		config:    config,
	}

	m.sweepOnce.Do(func() {
		m.wg.Add(1)
		go m.sweepLoop()
	})
	return id, nil
}

// Get returns the externally visible state of a task.
func (m *Manager) Get(id string) (schemas.TaskResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return schemas.TaskResponse{}, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return task.Snapshot(), nil
}

// SetProcessing moves a pending task to processing.
func (m *Manager) SetProcessing(id string) {
	m.update(id, func(t *Task) {
		t.Status = schemas.TaskStatusProcessing
	})
}

// SetProgress records a progress note on a running task.
func (m *Manager) SetProgress(id, progress string) {
	m.update(id, func(t *Task) {
		t.Progress = progress
	})
}

// Complete moves a task to its terminal completed state with the run results.
func (m *Manager) Complete(id string, result map[string]any, progress string) {
	m.update(id, func(t *Task) {
		t.Status = schemas.TaskStatusCompleted
		t.Result = result
		if progress != "" {
			t.Progress = progress
		}
	})
}

// Fail moves a task to its terminal failed state. Partial results, when
// present, are kept alongside the error.
func (m *Manager) Fail(id, errMsg string, result map[string]any) {
	m.update(id, func(t *Task) {
		t.Status = schemas.TaskStatusFailed
		t.Error = errMsg
		if result != nil {
			t.Result = result
		}
	})
}

// update applies fn under the lock. Terminal tasks are immutable: a late
// update from a slow goroutine never rewrites a finished task.
func (m *Manager) update(id string, fn func(*Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.Status.Terminal() {
		return
	}
	fn(task)
	task.UpdatedAt = m.now()
}

// StartBackground launches the runner for a task under supervision: the run
// is tracked for drain on Close and a panic is converted into a failed task
// instead of taking the process down.
func (m *Manager) StartBackground(id string, run Runner) error {
	m.mu.RLock()
	task, ok := m.tasks[id]
	closed := m.closed
	var token string
	var config map[string]any
	if ok {
		token = task.authToken
		config = task.config
	}
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("task runner panicked", "task_id", id, "panic", r)
				m.Fail(id, fmt.Sprintf("internal error: %v", r), nil)
			}
		}()
		run(context.Background(), id, token, config)
	}()
	return nil
}

// Close stops the sweep and waits for in-flight runs to finish. New tasks are
// rejected after Close begins.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-m.done:
			return
		}
	}
}

// evictExpired drops terminal tasks whose last update is older than the TTL.
// Running tasks are never evicted regardless of age.
func (m *Manager) evictExpired() {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, task := range m.tasks {
		if task.Status.Terminal() && task.UpdatedAt.Before(cutoff) {
			delete(m.tasks, id)
			m.logger.Debug("task expired", "task_id", id)
		}
	}
}

// Len reports the number of tracked tasks.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}
