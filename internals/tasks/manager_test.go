package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/reifyhq/reify/internals/schemas"
)

func testManager() *Manager {
	return NewManager(24*time.Hour, 12*time.Hour, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func waitForStatus(m *Manager, taskID string, status schemas.TaskStatus) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, err := m.Get(taskID)
		if err == nil && record.Status == status {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("timeout waiting for status")
}

func TestGetUnknownTask(t *testing.T) {
	m := testManager()
	defer m.Close()

	_, err := m.Get("nope")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, err := m.Create("tok", map[string]any{"create": map[string]any{}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	record, err := m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != schemas.TaskStatusPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}

	m.SetProcessing(id)
	m.SetProgress(id, "working")
	record, _ = m.Get(id)
	if record.Status != schemas.TaskStatusProcessing || record.Progress != "working" {
		t.Fatalf("unexpected state: %+v", record)
	}

	m.Complete(id, map[string]any{"created": []any{"x"}}, "finished")
	record, _ = m.Get(id)
	if record.Status != schemas.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", record.Status)
	}
	if record.Result == nil {
		t.Fatalf("result missing")
	}
}

func TestTerminalStatusIsMonotonic(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, _ := m.Create("tok", nil)
	m.Complete(id, map[string]any{"n": 1.0}, "")

	m.SetProcessing(id)
	m.SetProgress(id, "late update")
	m.Fail(id, "late failure", nil)

	record, _ := m.Get(id)
	if record.Status != schemas.TaskStatusCompleted {
		t.Fatalf("terminal status rewritten to %s", record.Status)
	}
	if record.Error != "" {
		t.Fatalf("error set on completed task: %q", record.Error)
	}
	if record.Result == nil {
		t.Fatalf("result cleared after terminal state")
	}
}

func TestFailKeepsPartialResults(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, _ := m.Create("tok", nil)
	m.Fail(id, "maximum iterations reached", map[string]any{"created_locations": []any{"x"}})

	record, _ := m.Get(id)
	if record.Status != schemas.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.Error != "maximum iterations reached" {
		t.Fatalf("unexpected error: %q", record.Error)
	}
	if record.Result == nil {
		t.Fatalf("partial results discarded")
	}
}

func TestStartBackgroundRunsWithTokenAndConfig(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, _ := m.Create("secret-token", map[string]any{"create": map[string]any{"k": "v"}})

	done := make(chan struct{})
	err := m.StartBackground(id, func(ctx context.Context, taskID, authToken string, config map[string]any) {
		defer close(done)
		if taskID != id {
			t.Errorf("wrong task id: %s", taskID)
		}
		if authToken != "secret-token" {
			t.Errorf("wrong auth token: %s", authToken)
		}
		if config == nil || config["create"] == nil {
			t.Errorf("config not passed through")
		}
		m.Complete(taskID, nil, "")
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	<-done
	if err := waitForStatus(m, id, schemas.TaskStatusCompleted); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestStartBackgroundPanicFailsTask(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, _ := m.Create("tok", nil)
	err := m.StartBackground(id, func(ctx context.Context, taskID, authToken string, config map[string]any) {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := waitForStatus(m, id, schemas.TaskStatusFailed); err != nil {
		t.Fatalf("wait for failed: %v", err)
	}
	record, _ := m.Get(id)
	if record.Error == "" {
		t.Fatalf("expected panic detail in error")
	}
}

func TestAuthTokenNeverSerialized(t *testing.T) {
	m := testManager()
	defer m.Close()

	id, _ := m.Create("super-secret", nil)
	record, _ := m.Get(id)
	if record.Result != nil {
		t.Fatalf("unexpected result on new task")
	}
	// TaskResponse has no token field; this guards against one being added.
	if record.Error == "super-secret" || record.Progress == "super-secret" {
		t.Fatalf("auth token leaked into response")
	}
}

func TestEvictExpiredOnlyTerminalAndOld(t *testing.T) {
	m := testManager()
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	oldDone, _ := m.Create("tok", nil)
	m.Complete(oldDone, nil, "")
	oldRunning, _ := m.Create("tok", nil)
	m.SetProcessing(oldRunning)

	// Jump past the TTL; create a fresh terminal task at the new time.
	m.now = func() time.Time { return now.Add(25 * time.Hour) }
	freshDone, _ := m.Create("tok", nil)
	m.Fail(freshDone, "boom", nil)

	m.evictExpired()

	if _, err := m.Get(oldDone); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("old terminal task should be evicted, got %v", err)
	}
	if _, err := m.Get(oldRunning); err != nil {
		t.Fatalf("running task must never be evicted: %v", err)
	}
	if _, err := m.Get(freshDone); err != nil {
		t.Fatalf("fresh terminal task must survive: %v", err)
	}
}

func TestConcurrentCreatesDistinctIDs(t *testing.T) {
	m := testManager()
	defer m.Close()

	const n = 50
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := m.Create("tok", nil)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate task id %s", id)
			}
			seen[id] = true
		}()
	}
	wg.Wait()

	if m.Len() != n {
		t.Fatalf("expected %d tasks, got %d", n, m.Len())
	}
}

func TestCreateAfterClose(t *testing.T) {
	m := testManager()
	m.Close()

	if _, err := m.Create("tok", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
