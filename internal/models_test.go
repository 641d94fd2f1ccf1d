package internal

import (
	"testing"
	"time"
)

func TestNewWelcomeMessage(t *testing.T) {
	msg := NewWelcomeMessage("")
	if msg.ID != WelcomeMessageID || msg.Role != RoleSystem {
		t.Errorf("NewWelcomeMessage() = %+v, want system message %q", msg, WelcomeMessageID)
	}
	if msg.Text != DefaultWelcomeText {
		t.Errorf("Text = %q, want default welcome text", msg.Text)
	}

	if got := NewWelcomeMessage("Hello").Text; got != "Hello" {
		t.Errorf("custom welcome Text = %q, want Hello", got)
	}
}

func TestMessage_GetCreatedAt(t *testing.T) {
	msg := Message{CreatedAt: "2025-03-01T10:00:02.500Z"}
	want := time.Date(2025, 3, 1, 10, 0, 2, 500*int(time.Millisecond), time.UTC)
	if got := msg.GetCreatedAt(); !got.Equal(want) {
		t.Errorf("GetCreatedAt() = %v, want %v", got, want)
	}

	if got := (Message{CreatedAt: "yesterday"}).GetCreatedAt(); !got.IsZero() {
		t.Errorf("GetCreatedAt() on malformed value = %v, want zero", got)
	}
}

func TestTranscript_Conversation(t *testing.T) {
	tr := NewTranscript(NewWelcomeMessage(""),
		Message{ID: "u1", Role: RoleUser, Text: "Hi"},
		Message{ID: "a1", Role: RoleAssistant, Text: "Hello"},
	)

	if len(tr.Messages) != 3 || tr.Messages[0].ID != WelcomeMessageID {
		t.Fatalf("NewTranscript() should start with the welcome message, got %+v", tr.Messages)
	}
	conv := tr.Conversation()
	if len(conv) != 2 || conv[0].ID != "u1" || conv[1].ID != "a1" {
		t.Errorf("Conversation() = %+v, want u1, a1", conv)
	}
}

func TestTranscript_Find(t *testing.T) {
	tr := NewTranscript(NewWelcomeMessage(""), Message{ID: "u1", Role: RoleUser})

	if got := tr.Find("u1"); got != 1 {
		t.Errorf("Find(u1) = %d, want 1", got)
	}
	if got := tr.Find("missing"); got != -1 {
		t.Errorf("Find(missing) = %d, want -1", got)
	}
}

func TestTranscript_Clone(t *testing.T) {
	tr := NewTranscript(NewWelcomeMessage(""), Message{ID: "a1", Role: RoleAssistant, Text: "x"})
	tr.OpenID = "a1"

	clone := tr.Clone()
	clone.Messages[1].Text = "changed"

	if tr.Messages[1].Text != "x" {
		t.Error("Clone() shares the message slice with the original")
	}
	if clone.OpenID != "a1" {
		t.Errorf("Clone().OpenID = %q, want a1", clone.OpenID)
	}
}

func TestStreamState(t *testing.T) {
	tests := []struct {
		state    StreamState
		name     string
		terminal bool
	}{
		{StreamIdle, "idle", false},
		{StreamSending, "sending", false},
		{StreamCompleted, "completed", true},
		{StreamAborted, "aborted", true},
		{StreamFailed, "failed", true},
		{StreamState(42), "unknown", false},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.name, got, tt.terminal)
		}
	}
}

func TestChatSession_Times(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	session := NewChatSession("s1", DefaultSessionName(2), now)

	if session.Name != "Chat 2" {
		t.Errorf("Name = %q, want Chat 2", session.Name)
	}
	if session.CreatedAt != "2025-03-01T10:00:00.000Z" {
		t.Errorf("CreatedAt = %q, want millisecond ISO8601", session.CreatedAt)
	}
	if !session.GetUpdatedAt().Equal(now) {
		t.Errorf("GetUpdatedAt() = %v, want %v", session.GetUpdatedAt(), now)
	}

	session.UpdatedAt = ""
	if !session.GetUpdatedAt().Equal(now) {
		t.Error("GetUpdatedAt() should fall back to CreatedAt")
	}
}
