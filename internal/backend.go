package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer is the transport used for backend requests; *http.Client satisfies it
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultBackendURL is used when no backend is configured
const DefaultBackendURL = "http://localhost:8000"

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return strings.TrimSuffix(baseURL, "/")
}

// RemoteSession is the backend's view of a session
type RemoteSession struct {
	SessionID    string `json:"session_id"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	MessageCount int    `json:"message_count"`
}

// HealthStatus is the body returned by the health endpoint
type HealthStatus struct {
	Status string `json:"status"`
}

// BackendClient performs the non-streaming backend calls
type BackendClient struct {
	baseURL string
	http    HTTPDoer
	timeout time.Duration
}

// NewBackendClient creates a BackendClient. A zero timeout disables the per-call deadline.
func NewBackendClient(baseURL string, doer HTTPDoer, timeout time.Duration) *BackendClient {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &BackendClient{
		baseURL: normalizeBaseURL(baseURL),
		http:    doer,
		timeout: timeout,
	}
}

// BaseURL returns the normalized backend URL
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// ResetSession clears the backend's conversation state for sessionID
func (c *BackendClient) ResetSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(map[string]string{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to encode reset request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/chat/reset", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	LogDebug("Reset session %s on backend", sessionID)
	return nil
}

// ListRemoteSessions returns the sessions the backend knows about.
// A backend without the listing endpoint yields an empty list.
func (c *BackendClient) ListRemoteSessions(ctx context.Context) ([]RemoteSession, error) {
	resp, err := c.do(ctx, http.MethodGet, "/chat/sessions", nil)
	if err != nil {
		if IsNotFound(err) {
			LogDebug("Backend does not list sessions")
			return []RemoteSession{}, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Sessions []RemoteSession `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ParseError{Source: "sessions", Key: c.baseURL, Err: err}
	}
	if payload.Sessions == nil {
		payload.Sessions = []RemoteSession{}
	}
	return payload.Sessions, nil
}

// Health queries the backend health endpoint
func (c *BackendClient) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return HealthStatus{}, &ParseError{Source: "health", Key: c.baseURL, Err: err}
	}
	if status.Status != "ok" {
		return status, fmt.Errorf("backend reported status %q", status.Status)
	}
	return status, nil
}

// do issues a request and returns the response for 2xx statuses only
func (c *BackendClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		resp, err := c.send(ctx, method, path, body)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return c.send(ctx, method, path, body)
}

func (c *BackendClient) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
