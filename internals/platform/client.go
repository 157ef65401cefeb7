// Package platform is the HTTP client for the remote configuration platform.
// Every call is authenticated with the caller's token and failures are
// classified so the engine can distinguish critical outages from recoverable
// request errors.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies a failed platform call.
type ErrorKind string

const (
	KindHTTPStatus ErrorKind = "http_status"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network_error"
	KindOther      ErrorKind = "other"
)

// APIError is returned for any failed platform call. Kind and StatusCode feed
// the severity classification the engine reports to the reasoning service.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("platform %s: %s", e.Kind, e.Message)
}

// Critical reports whether the failure should stop the run: auth rejections,
// server-side errors, timeouts and connectivity failures. Other HTTP statuses
// (validation errors, conflicts, missing resources) are recoverable and the
// conversation continues.
func (e *APIError) Critical() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindHTTPStatus:
		return e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusForbidden ||
			e.StatusCode >= 500
	}
	return false
}

// Client issues JSON requests against the platform API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call issues one request. A non-nil body is sent as JSON. The decoded JSON
// response is returned as plain data; empty bodies decode to nil.
func (c *Client) Call(ctx context.Context, method, path, authToken string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindOther, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &APIError{Kind: KindOther, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("auth-token", authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		// Some endpoints answer plain text on success.
		return strings.TrimSpace(string(data)), nil
	}
	return decoded, nil
}

func classifyTransport(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Message: err.Error()}
	}
	return &APIError{Kind: KindNetwork, Message: err.Error()}
}
