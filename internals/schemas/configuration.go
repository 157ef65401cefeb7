package schemas

import "errors"

// ConfigurationRequest is the body of POST /configurations. The config
// document is a declarative CRUD description of the desired platform state;
// its inner entity payloads are opaque to the engine and interpreted by the
// reasoning service.
type ConfigurationRequest struct {
	Config map[string]any `json:"config"`
}

var configOperations = []string{"create", "update", "delete"}

var ErrConfigMissing = errors.New("config object is required")
var ErrConfigNoOperation = errors.New("config must contain at least one of: create, update, delete")

// Validate checks the request the same way on the server and in the CLI.
func (r *ConfigurationRequest) Validate() error {
	if len(r.Config) == 0 {
		return ErrConfigMissing
	}
	for _, op := range configOperations {
		if v, ok := r.Config[op]; ok && v != nil {
			return nil
		}
	}
	return ErrConfigNoOperation
}

type ConfigurationResponse struct {
	TaskID  string     `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}
