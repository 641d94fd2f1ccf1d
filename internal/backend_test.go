package internal

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/horizonlabs/horizon-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBackendURL},
		{"http://api.example.com/", "http://api.example.com"},
		{"  http://api.example.com  ", "http://api.example.com"},
		{"http://api.example.com", "http://api.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBaseURL(tt.in), "normalizeBaseURL(%q)", tt.in)
	}
}

func TestBackendClient_Health(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewBackendClient(backend.URL, nil, time.Second)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)

	backend.SetHealth("degraded")
	_, err = client.Health(context.Background())
	assert.Error(t, err)
}

func TestBackendClient_ResetSession(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewBackendClient(backend.URL, nil, time.Second)

	require.NoError(t, client.ResetSession(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, backend.Resets())

	backend.SetResetStatus(http.StatusServiceUnavailable)
	err := client.ResetSession(context.Background(), "s2")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
}

func TestBackendClient_ListRemoteSessions(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewBackendClient(backend.URL, nil, 0)

	backend.SetRemoteSessions(http.StatusOK, []map[string]interface{}{
		{"session_id": "s1", "message_count": 4, "updated_at": "2025-03-01T10:00:00Z"},
	})
	sessions, err := client.ListRemoteSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []RemoteSession{{SessionID: "s1", MessageCount: 4, UpdatedAt: "2025-03-01T10:00:00Z"}}, sessions)

	backend.SetRemoteSessions(http.StatusNotFound, nil)
	sessions, err = client.ListRemoteSessions(context.Background())
	require.NoError(t, err, "a backend without the endpoint lists nothing")
	assert.Empty(t, sessions)

	backend.SetRemoteSessions(http.StatusInternalServerError, nil)
	_, err = client.ListRemoteSessions(context.Background())
	assert.Error(t, err)
}
