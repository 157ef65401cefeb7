// Package sdk is the Go client for the reifyd HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reifyhq/reify/internals/env"
	"github.com/reifyhq/reify/internals/schemas"
)

type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

var ErrAuthRequired = errors.New("auth required")
var ErrTaskNotFound = errors.New("task not found")

type ErrorResponse struct {
	Status  string              `json:"status"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(opts ...Option) *Client {
	envs := env.Get()
	client := &Client{
		baseURL: strings.TrimRight(envs.BASE_URL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/shutdown", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return responseError(resp)
}

// CreateConfiguration submits a document for asynchronous realization and
// returns the tracking task.
func (c *Client) CreateConfiguration(ctx context.Context, request schemas.ConfigurationRequest) (*schemas.ConfigurationResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/configurations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, responseError(resp)
	}

	var payload schemas.ConfigurationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (c *Client) TaskStatus(ctx context.Context, taskID string) (*schemas.TaskResponse, error) {
	path := "/tasks/" + url.PathEscape(taskID)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTaskNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var payload schemas.TaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

// WaitForTask polls until the task reaches a terminal status or ctx expires.
func (c *Client) WaitForTask(ctx context.Context, taskID string, pollEvery time.Duration) (*schemas.TaskResponse, error) {
	if pollEvery <= 0 {
		pollEvery = 2 * time.Second
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		response, err := c.TaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if response.Status.Terminal() {
			return response, nil
		}

		select {
		case <-ctx.Done():
			return response, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("auth-token", c.authToken)
	}
	return c.httpClient.Do(req)
}

func responseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Code == "auth_required" {
			return ErrAuthRequired
		}
		return &APIError{StatusCode: resp.StatusCode, Code: payload.Code, Message: payload.Message}
	}

	return fmt.Errorf("unexpected status: %s", resp.Status)
}
