package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one message as returned by the history endpoint
type HistoryRecord struct {
	Role      string  `json:"role"`
	Content   *string `json:"content"`
	CreatedAt *string `json:"created_at"`
}

// History is the confirmed transcript of a session as known to the backend
type History struct {
	Messages        []Message
	LatestTimestamp string
}

// Normalizer converts backend history records to transcript messages
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NormalizeHistory converts history records to messages. System entries
// and unknown roles are dropped; ids are fresh on every call.
func (n *Normalizer) NormalizeHistory(records []HistoryRecord) History {
	messages := make([]Message, 0, len(records))
	for index, record := range records {
		role, ok := n.normalizeActor(record.Role)
		if !ok {
			continue
		}
		messages = append(messages, n.normalizeMessage(index, role, record))
	}

	latest := ""
	if len(messages) > 0 {
		latest = messages[len(messages)-1].CreatedAt
	}
	if latest == "" {
		latest = formatTime(n.now())
	}
	return History{Messages: messages, LatestTimestamp: latest}
}

// EmptyHistory is the history of a session the backend has never seen
func (n *Normalizer) EmptyHistory() History {
	return History{Messages: []Message{}, LatestTimestamp: formatTime(n.now())}
}

// normalizeMessage builds a message with id {role}-{index}-{uuid}
func (n *Normalizer) normalizeMessage(index int, role Role, record HistoryRecord) Message {
	msg := Message{
		ID:   fmt.Sprintf("%s-%d-%s", role, index, n.newID()),
		Role: role,
	}
	if record.Content != nil {
		msg.Text = *record.Content
	}
	if record.CreatedAt != nil {
		msg.CreatedAt = *record.CreatedAt
	}
	return msg
}

// normalizeActor maps a backend role to a transcript role
func (n *Normalizer) normalizeActor(role string) (Role, bool) {
	switch Role(role) {
	case RoleUser:
		return RoleUser, true
	case RoleAssistant:
		return RoleAssistant, true
	default:
		return "", false
	}
}
