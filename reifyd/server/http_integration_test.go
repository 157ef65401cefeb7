package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reifyhq/reify/internals/agent"
	"github.com/reifyhq/reify/internals/conf"
	"github.com/reifyhq/reify/internals/env"
	"github.com/reifyhq/reify/internals/llm"
	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/schemas"
)

// fakeLLM replays a fixed sequence of turns.
type fakeLLM struct {
	turns []*llm.Turn
	calls int
}

func (f *fakeLLM) next() (*llm.Turn, error) {
	if f.calls >= len(f.turns) {
		return &llm.Turn{Text: `{"done": false, "status": "processing"}`}, nil
	}
	turn := f.turns[f.calls]
	f.calls++
	return turn, nil
}

func (f *fakeLLM) Start(ctx context.Context, input string, tools []llm.ToolSpec, instructions string) (*llm.Turn, error) {
	return f.next()
}

func (f *fakeLLM) Continue(ctx context.Context, history []llm.Item, tools []llm.ToolSpec, instructions string) (*llm.Turn, error) {
	return f.next()
}

func newTestServer(t *testing.T, model llm.Client) (*Server, *httptest.Server, *[]string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	env.Reset()
	conf.Reset()
	t.Cleanup(func() {
		env.Reset()
		conf.Reset()
	})

	platformPaths := &[]string{}
	platformServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*platformPaths = append(*platformPaths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/addressLevelType" {
			_, _ = w.Write([]byte(`{"id": 100, "name": "State", "level": 3}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(platformServer.Close)

	s := New(
		WithLLMClient(model),
		WithPlatformClient(platform.NewClient(platformServer.URL, time.Second)),
	)
	t.Cleanup(s.tasks.Close)

	httpServer := httptest.NewServer(s.Router())
	t.Cleanup(httpServer.Close)
	return s, httpServer, platformPaths
}

func postConfiguration(t *testing.T, baseURL, token string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, baseURL+"/configurations", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("auth-token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func waitForTerminal(t *testing.T, baseURL, taskID string) schemas.TaskResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/tasks/" + taskID)
		if err != nil {
			t.Fatalf("get task: %v", err)
		}
		var payload schemas.TaskResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode task: %v", err)
		}
		if payload.Status.Terminal() {
			return payload
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for terminal status")
	return schemas.TaskResponse{}
}

func TestConfigurationRealizedEndToEnd(t *testing.T) {
	model := &fakeLLM{turns: []*llm.Turn{
		{
			Text: `{"done": false, "status": "processing", "message": "creating State"}`,
			Calls: []llm.ToolCall{
				{CallID: "c1", Name: "create_location_type", Arguments: `{"name": "State", "level": 3}`},
			},
			Items: []llm.Item{
				llm.AssistantItem(`{"done": false, "status": "processing", "message": "creating State"}`),
				llm.CallItem(llm.ToolCall{CallID: "c1", Name: "create_location_type", Arguments: `{"name": "State", "level": 3}`}),
			},
		},
		{
			Text: `{"done": true, "status": "completed", "message": "created 1 location type", "results": {"created_address_level_types": [{"name": "State", "id": 100}]}}`,
			Items: []llm.Item{
				llm.AssistantItem(`{"done": true, "status": "completed"}`),
			},
		},
	}}

	_, httpServer, platformPaths := newTestServer(t, model)

	resp := postConfiguration(t, httpServer.URL, "tok-123", `{"config": {"create": {"addressLevelTypes": [{"name": "State", "level": 3}]}}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var created schemas.ConfigurationResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.TaskID == "" || created.Status != schemas.TaskStatusPending {
		t.Fatalf("unexpected response: %+v", created)
	}

	final := waitForTerminal(t, httpServer.URL, created.TaskID)
	if final.Status != schemas.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", final.Status, final.Error)
	}
	entries, ok := final.Result["created_address_level_types"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("unexpected result: %+v", final.Result)
	}

	// Snapshot reads plus the creation call, all with the caller's token.
	var sawCreate bool
	for _, path := range *platformPaths {
		if path == "POST /addressLevelType" {
			sawCreate = true
		}
	}
	if !sawCreate {
		t.Fatalf("platform creation never happened: %v", *platformPaths)
	}
	if model.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.calls)
	}
}

func TestConfigurationMaxIterationsFailsTask(t *testing.T) {
	model := &fakeLLM{} // never done
	s, httpServer, _ := newTestServer(t, model)
	s.driver = agent.NewDriver(model, s.registry, 2, s.Base.Logger)

	resp := postConfiguration(t, httpServer.URL, "tok", `{"config": {"create": {"x": 1}}}`)
	defer resp.Body.Close()

	var created schemas.ConfigurationResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	final := waitForTerminal(t, httpServer.URL, created.TaskID)
	if final.Status != schemas.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.Error != "maximum iterations reached" {
		t.Fatalf("unexpected error: %q", final.Error)
	}
}

func TestConfigurationRequiresAuthToken(t *testing.T) {
	_, httpServer, _ := newTestServer(t, &fakeLLM{})

	resp := postConfiguration(t, httpServer.URL, "", `{"config": {"create": {"x": 1}}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestConfigurationValidation(t *testing.T) {
	_, httpServer, _ := newTestServer(t, &fakeLLM{})

	for _, body := range []string{
		`not json`,
		`{"config": {}}`,
		`{"config": {"unknown": {}}}`,
	} {
		resp := postConfiguration(t, httpServer.URL, "tok", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestUnknownTaskNotFound(t *testing.T) {
	_, httpServer, _ := newTestServer(t, &fakeLLM{})

	resp, err := http.Get(httpServer.URL + "/tasks/never-created")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var payload ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != JsonResponseErrorCodeNotFound {
		t.Fatalf("unexpected code: %s", payload.Code)
	}
}

func TestSnapshotFailureFailsTask(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env.Reset()
	conf.Reset()
	t.Cleanup(func() {
		env.Reset()
		conf.Reset()
	})

	platformServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(platformServer.Close)

	s := New(
		WithLLMClient(&fakeLLM{}),
		WithPlatformClient(platform.NewClient(platformServer.URL, time.Second)),
	)
	t.Cleanup(s.tasks.Close)
	httpServer := httptest.NewServer(s.Router())
	t.Cleanup(httpServer.Close)

	resp := postConfiguration(t, httpServer.URL, "tok", `{"config": {"create": {"x": 1}}}`)
	defer resp.Body.Close()

	var created schemas.ConfigurationResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	final := waitForTerminal(t, httpServer.URL, created.TaskID)
	if final.Status != schemas.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Error, "failed to fetch existing configuration") {
		t.Fatalf("unexpected error: %q", final.Error)
	}
}

func TestHealthAndVersion(t *testing.T) {
	_, httpServer, _ := newTestServer(t, &fakeLLM{})

	resp, err := http.Get(httpServer.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	versionResp, err := http.Get(httpServer.URL + "/version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	defer versionResp.Body.Close()
	if versionResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", versionResp.StatusCode)
	}
}
