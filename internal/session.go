package internal

import (
	"fmt"
	"time"
)

// ChatSession is one entry of the locally persisted session list
type ChatSession struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	CreatedAt string `json:"createdAt" yaml:"created_at"`
	UpdatedAt string `json:"updatedAt" yaml:"updated_at"`
}

// DefaultSessionName returns the display label for the n-th session (1-based)
func DefaultSessionName(n int) string {
	return fmt.Sprintf("Chat %d", n)
}

// NewChatSession creates a session stamped with now
func NewChatSession(id, name string, now time.Time) ChatSession {
	ts := formatTime(now)
	return ChatSession{
		ID:        id,
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// GetCreatedAt returns CreatedAt as a time.Time, zero if unparseable
func (s ChatSession) GetCreatedAt() time.Time {
	return parseTime(s.CreatedAt)
}

// GetUpdatedAt returns UpdatedAt, falling back to CreatedAt
func (s ChatSession) GetUpdatedAt() time.Time {
	if t := parseTime(s.UpdatedAt); !t.IsZero() {
		return t
	}
	return s.GetCreatedAt()
}

// formatTime formats a time as ISO8601 with millisecond precision in UTC
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
