package tasks

import (
	"time"

	"github.com/reifyhq/reify/internals/schemas"
)

// Task is one tracked realization run. The auth token is held for the
// duration of the run but never serialized; Snapshot is the only way task
// state leaves the manager.
type Task struct {
	ID        string
	Status    schemas.TaskStatus
	Progress  string
	Result    map[string]any
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time

	authToken string
	config    map[string]any
}

// Config returns the document this task realizes.
func (t *Task) Config() map[string]any {
	return t.config
}

// Snapshot copies the externally visible state.
func (t *Task) Snapshot() schemas.TaskResponse {
	return schemas.TaskResponse{
		TaskID:    t.ID,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
		Progress:  t.Progress,
		Result:    t.Result,
		Error:     t.Error,
	}
}
