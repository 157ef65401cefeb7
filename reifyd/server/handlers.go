package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reifyhq/reify/internals/agent"
	"github.com/reifyhq/reify/internals/registry"
	"github.com/reifyhq/reify/internals/schemas"
)

// authTokenHeader carries the caller's platform credential. It is forwarded
// to the platform on every tool call and never stored outside process memory.
const authTokenHeader = "auth-token"

func (s *Server) HandlerHealth(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Base.Config.Version))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))
	s.Shutdown()
}

func (s *Server) HandlerCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	authToken := strings.TrimSpace(r.Header.Get(authTokenHeader))
	if authToken == "" {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeAuthRequired, "auth-token header is required", nil), Render.Status(http.StatusUnauthorized))
		return
	}

	var request schemas.ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}
	if err := request.Validate(); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, err.Error(), nil), Render.Status(http.StatusBadRequest))
		return
	}

	taskID, err := s.tasks.Create(authToken, request.Config)
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, "Failed to create task", nil), Render.Status(http.StatusInternalServerError))
		return
	}
	if err := s.tasks.StartBackground(taskID, s.runConfiguration); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, "Failed to start task", nil), Render.Status(http.StatusInternalServerError))
		return
	}

	RenderJSON(w, r, schemas.ConfigurationResponse{
		TaskID:  taskID,
		Status:  schemas.TaskStatusPending,
		Message: "Configuration accepted for processing",
	}, Render.Status(http.StatusAccepted))
}

// runConfiguration is the background body of one task: snapshot the platform,
// drive the conversation, map its outcome onto the task record.
func (s *Server) runConfiguration(ctx context.Context, taskID, authToken string, config map[string]any) {
	s.tasks.SetProcessing(taskID)

	snapshotCtx, cancel := context.WithTimeout(ctx, time.Duration(s.Base.Config.Platform.TimeoutSeconds)*time.Second*6)
	snapshot, err := s.platform.FetchSnapshot(snapshotCtx, authToken)
	cancel()
	if err != nil {
		s.tasks.Fail(taskID, "failed to fetch existing configuration: "+err.Error(), nil)
		return
	}

	rc := registry.ReqContext{AuthToken: authToken, TaskID: taskID}
	outcome, err := s.driver.Run(ctx, rc, config, snapshot, func(iteration int, o agent.Outcome) {
		if o.Message != "" {
			s.tasks.SetProgress(taskID, o.Message)
		}
	})

	switch {
	case err == nil:
		// Covers both done=true and a deliberate early stop; partial results
		// are preserved either way.
		s.tasks.Complete(taskID, outcome.Results, outcome.Message)
	case errors.Is(err, agent.ErrMaxIterations):
		s.tasks.Fail(taskID, "maximum iterations reached", outcome.Results)
	default:
		s.tasks.Fail(taskID, err.Error(), outcome.Results)
	}
}
