package internal

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WelcomeMessageID is the fixed id of the synthetic welcome message
const WelcomeMessageID = "welcome"

// DefaultWelcomeText is shown at the top of every transcript
const DefaultWelcomeText = "Welcome to Horizon Labs Chat. Ask a question to begin."

// Message is a single transcript entry.
// ID is a client-side reconciliation key and is never sent to the backend.
type Message struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// NewWelcomeMessage creates the locally synthesized system message
func NewWelcomeMessage(text string) Message {
	if text == "" {
		text = DefaultWelcomeText
	}
	return Message{ID: WelcomeMessageID, Role: RoleSystem, Text: text}
}

// GetCreatedAt parses CreatedAt, returning the zero time when absent or malformed
func (m Message) GetCreatedAt() time.Time {
	return parseTime(m.CreatedAt)
}

// Transcript is the ordered message list for the active session.
// It always starts with the welcome message. OpenID names the assistant
// message still receiving tokens, empty when no stream is open.
// Provisional is true while locally streamed text has not yet been
// replaced by the backend's confirmed history.
type Transcript struct {
	Messages    []Message `json:"messages" yaml:"messages"`
	OpenID      string    `json:"-" yaml:"-"`
	Provisional bool      `json:"-" yaml:"-"`
}

// NewTranscript builds a confirmed transcript from restored history
func NewTranscript(welcome Message, restored ...Message) Transcript {
	messages := make([]Message, 0, len(restored)+1)
	messages = append(messages, welcome)
	messages = append(messages, restored...)
	return Transcript{Messages: messages}
}

// Clone returns a deep copy safe to hand out to callers
func (t Transcript) Clone() Transcript {
	out := t
	out.Messages = append([]Message(nil), t.Messages...)
	return out
}

// Find returns the index of the message with the given id, or -1
func (t Transcript) Find(id string) int {
	for i := range t.Messages {
		if t.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// Conversation returns the messages excluding the synthetic welcome message
func (t Transcript) Conversation() []Message {
	out := make([]Message, 0, len(t.Messages))
	for _, msg := range t.Messages {
		if msg.Role == RoleSystem && msg.ID == WelcomeMessageID {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// StreamState is the lifecycle state of a stream
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamSending
	StreamCompleted
	StreamAborted
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamSending:
		return "sending"
	case StreamCompleted:
		return "completed"
	case StreamAborted:
		return "aborted"
	case StreamFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the stream has finished
func (s StreamState) IsTerminal() bool {
	return s == StreamCompleted || s == StreamAborted || s == StreamFailed
}

// Conversation is a session together with its confirmed messages, the
// unit written by exporters
type Conversation struct {
	Session  ChatSession `json:"session" yaml:"session"`
	Messages []Message   `json:"messages" yaml:"messages"`
}
