package cmd

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/horizonlabs/horizon-chat/testutil"
)

func TestListCommand(t *testing.T) {
	dir := setupEnv(t, nil)
	seedSessions(t, dir, "session-2",
		testSession("session-1", "Groceries"),
		testSession("session-2", "Trip planning"),
	)

	out, err := runCommand(t, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{"Found 2 session(s)", "Groceries", "Trip planning", "session-"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output should contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Messages") {
		t.Error("list without --remote should not show message counts")
	}
}

func TestListCommand_Empty(t *testing.T) {
	setupEnv(t, nil)

	out, err := runCommand(t, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "No sessions found") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

func TestListCommand_Remote(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	dir := setupEnv(t, backend)
	seedSessions(t, dir, "", testSession("session-1", "Groceries"), testSession("session-2", "Other"))
	backend.SetRemoteSessions(http.StatusOK, []map[string]interface{}{
		{"session_id": "session-1", "message_count": 6},
	})

	out, err := runCommand(t, "list", "--remote")
	if err != nil {
		t.Fatalf("list --remote error = %v", err)
	}
	if !strings.Contains(out, "Messages") || !strings.Contains(out, "6") {
		t.Errorf("list --remote should show message counts, got:\n%s", out)
	}

	backend.SetRemoteSessions(http.StatusInternalServerError, nil)
	if _, err := runCommand(t, "list", "--remote"); err == nil {
		t.Error("list --remote should fail when the backend errors")
	}
}

func TestDisplaySessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		sessions []internal.ChatSession
		activeID string
		counts   map[string]int
		want     []string
	}{
		{
			name: "empty",
			want: []string{"No sessions found"},
		},
		{
			name:     "active marker",
			sessions: []internal.ChatSession{testSession("session-1", "One"), testSession("session-2", "Two")},
			activeID: "session-2",
			want:     []string{"●", "One", "Two"},
		},
		{
			name:     "long name truncated",
			sessions: []internal.ChatSession{testSession("session-1", strings.Repeat("x", 60))},
			want:     []string{strings.Repeat("x", 47) + "..."},
		},
		{
			name:     "missing remote count",
			sessions: []internal.ChatSession{testSession("session-1", "One")},
			counts:   map[string]int{},
			want:     []string{"Messages", "—"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displaySessions(&buf, tt.sessions, tt.activeID, tt.counts, now)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Now()
	if got := formatRelative(time.Time{}, now); got != "—" {
		t.Errorf("formatRelative(zero) = %q, want —", got)
	}
	if got := formatRelative(now.Add(-time.Hour), now); !strings.HasPrefix(got, "Today") {
		t.Errorf("formatRelative(1h ago) = %q, want Today prefix", got)
	}
	old := time.Date(2000, 1, 2, 0, 0, 0, 0, time.Local)
	if got := formatRelative(old, now); got != "2000-01-02" {
		t.Errorf("formatRelative(2000) = %q, want 2000-01-02", got)
	}
}
