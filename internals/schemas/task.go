package schemas

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	// TaskStatusExpired labels tasks removed by the eviction sweep. It is
	// never observable on a live task: evicted tasks are simply absent.
	TaskStatusExpired TaskStatus = "expired"
)

// Terminal reports whether no further status transition is allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

type TaskResponse struct {
	TaskID    string         `json:"task_id"`
	Status    TaskStatus     `json:"status"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Progress  string         `json:"progress,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}
