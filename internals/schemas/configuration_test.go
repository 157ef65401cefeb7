package schemas

import (
	"errors"
	"testing"
)

func TestConfigurationRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{"nil config", nil, ErrConfigMissing},
		{"empty config", map[string]any{}, ErrConfigMissing},
		{"no operation", map[string]any{"meta": map[string]any{}}, ErrConfigNoOperation},
		{"nil operation", map[string]any{"create": nil}, ErrConfigNoOperation},
		{"create", map[string]any{"create": map[string]any{"x": 1}}, nil},
		{"update", map[string]any{"update": map[string]any{"x": 1}}, nil},
		{"delete", map[string]any{"delete": map[string]any{"x": 1}}, nil},
	}

	for _, tc := range cases {
		request := ConfigurationRequest{Config: tc.config}
		err := request.Validate()
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := map[TaskStatus]bool{
		TaskStatusPending:    false,
		TaskStatusProcessing: false,
		TaskStatusCompleted:  true,
		TaskStatusFailed:     true,
	}
	for status, want := range terminal {
		if status.Terminal() != want {
			t.Fatalf("%s: expected terminal=%v", status, want)
		}
	}
}
