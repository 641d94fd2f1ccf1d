package cmd

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/horizonlabs/horizon-chat/testutil"
)

func seedShowBackend(t *testing.T) (*testutil.FakeBackend, string) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	dir := setupEnv(t, backend)
	seedSessions(t, dir, "session-1", testSession("session-1", "Groceries"), testSession("session-2", "Trip"))
	backend.SetHistory("session-1", testutil.HistoryScript{Messages: []testutil.HistoryMessage{
		testutil.Msg("user", "What do we need?", "2025-03-01T10:00:00.000Z"),
		testutil.Msg("assistant", "Milk and bread.", "2025-03-01T10:00:02.000Z"),
	}})
	return backend, dir
}

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "last active session",
			args: []string{"show"},
			want: []string{"Groceries", "What do we need?", "Milk and bread.", "[2/2]", "Messages: 2"},
		},
		{
			name: "explicit id prefix",
			args: []string{"show", "session-1"},
			want: []string{"Groceries", "Milk and bread."},
		},
		{
			name:    "limit keeps the latest messages",
			args:    []string{"show", "--limit", "1"},
			want:    []string{"1 earlier message", "Milk and bread.", "[2/2]"},
			notWant: []string{"What do we need?"},
		},
		{
			name: "session without history",
			args: []string{"show", "session-2"},
			want: []string{"Trip", "Messages: 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedShowBackend(t)
			out, err := runCommand(t, tt.args...)
			if err != nil {
				t.Fatalf("show error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("output should not contain %q, got:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestShowCommand_HistoryFailureIsReported(t *testing.T) {
	backend, _ := seedShowBackend(t)
	backend.SetHistory("session-1", testutil.HistoryScript{Status: http.StatusInternalServerError})

	out, err := runCommand(t, "show")
	if err != nil {
		t.Fatalf("show error = %v, history failures should not fail the command", err)
	}
	if !strings.Contains(out, "Failed to load history (status 500)") {
		t.Errorf("output should report the history failure, got:\n%s", out)
	}
}

func TestShowCommand_ActivatesSession(t *testing.T) {
	_, dir := seedShowBackend(t)

	if _, err := runCommand(t, "show", "session-2"); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if _, last := storedSessions(t, dir); last != "session-2" {
		t.Errorf("last active = %q, want session-2", last)
	}
}

func TestShowCommand_UnknownSession(t *testing.T) {
	seedShowBackend(t)
	if _, err := runCommand(t, "show", "nope"); err == nil {
		t.Error("show with unknown id should fail")
	}
}

func TestDisplayMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  internal.Message
		want []string
	}{
		{"user", internal.Message{Role: internal.RoleUser, Text: "Hi"}, []string{"👤 You", "[1/3]", "Hi"}},
		{"assistant", internal.Message{Role: internal.RoleAssistant, Text: "Hello"}, []string{"🤖 Assistant", "Hello"}},
		{"empty", internal.Message{Role: internal.RoleAssistant}, []string{"(empty message)"}},
		{"other role", internal.Message{Role: "tool", Text: "x"}, []string{"🔧 tool"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displayMessage(&buf, 1, tt.msg, 3)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short line", "hello world", 80, "hello world"},
		{"wraps on words", "aaa bbb ccc", 7, "aaa bbb\nccc"},
		{"keeps newlines", "one\ntwo", 80, "one\ntwo"},
		{"long word", "abcdefghij", 5, "abcdefghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}
