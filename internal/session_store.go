package internal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Storage keys
const (
	SessionListKey = "horizon-chat-sessions"
	LastSessionKey = "horizon-chat-last-session"
)

// SessionStore persists the session list and the last-active pointer.
// Corrupt stored data is recovered to an empty state, never returned as an error.
type SessionStore struct {
	mu    sync.Mutex
	kv    KeyValueStore
	now   func() time.Time
	newID func() string
}

// NewSessionStore creates a SessionStore over kv
func NewSessionStore(kv KeyValueStore) *SessionStore {
	return &SessionStore{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock replaces the time source, used for new sessions and defaults
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// WithIDGenerator replaces the session id generator
func (s *SessionStore) WithIDGenerator(newID func() string) *SessionStore {
	s.newID = newID
	return s
}

// List returns the stored sessions in order
func (s *SessionStore) List() []ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the session with the given id
func (s *SessionStore) Get(id string) (ChatSession, bool) {
	for _, session := range s.List() {
		if session.ID == id {
			return session, true
		}
	}
	return ChatSession{}, false
}

// Create allocates a new session named after the current session count and persists it
func (s *SessionStore) Create() (ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := s.load()
	session := NewChatSession(s.newID(), DefaultSessionName(len(sessions)+1), s.now())
	if err := s.save(append(sessions, session)); err != nil {
		return ChatSession{}, err
	}
	return session, nil
}

// Update applies fn to the session with the given id and persists the result
func (s *SessionStore) Update(id string, fn func(*ChatSession)) (ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := s.load()
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		fn(&sessions[i])
		sessions[i].ID = id
		if err := s.save(sessions); err != nil {
			return ChatSession{}, err
		}
		return sessions[i], nil
	}
	return ChatSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// Remove deletes a session and clears the last-active pointer if it referenced it
func (s *SessionStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := s.load()
	kept := make([]ChatSession, 0, len(sessions))
	found := false
	for _, session := range sessions {
		if session.ID == id {
			found = true
			continue
		}
		kept = append(kept, session)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := s.save(kept); err != nil {
		return err
	}
	if last, ok, _ := s.kv.GetItem(LastSessionKey); ok && last == id {
		return s.kv.RemoveItem(LastSessionKey)
	}
	return nil
}

// LastActive returns the last-active session id, or "" when unset or dangling
func (s *SessionStore) LastActive() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive(s.load())
}

// SetLastActive records id as the last-active session
func (s *SessionStore) SetLastActive(id string) error {
	return s.kv.SetItem(LastSessionKey, id)
}

// ClearLastActive removes the last-active pointer
func (s *SessionStore) ClearLastActive() error {
	return s.kv.RemoveItem(LastSessionKey)
}

// Bootstrap normalizes the stored list, creating "Chat 1" when there is
// nothing to restore, and picks the session to activate: the last-active
// one if it still exists, otherwise the first.
func (s *SessionStore) Bootstrap() ([]ChatSession, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.load()
	if len(sessions) == 0 {
		sessions = []ChatSession{NewChatSession(s.newID(), DefaultSessionName(1), s.now())}
	}
	if err := s.save(sessions); err != nil {
		return nil, "", err
	}

	initial := s.lastActive(sessions)
	if initial == "" {
		initial = sessions[0].ID
	}
	if err := s.kv.SetItem(LastSessionKey, initial); err != nil {
		return nil, "", err
	}
	return sessions, initial, nil
}

func (s *SessionStore) lastActive(sessions []ChatSession) string {
	last, ok, err := s.kv.GetItem(LastSessionKey)
	if err != nil {
		LogWarn("Failed to read last active session: %v", err)
		return ""
	}
	if !ok || last == "" {
		return ""
	}
	for _, session := range sessions {
		if session.ID == last {
			return last
		}
	}
	LogDebug("Dropping last active session %s: no longer exists", last)
	return ""
}

// load reads and normalizes the session list. Entries without a string id
// are dropped; missing names and timestamps are filled in.
func (s *SessionStore) load() []ChatSession {
	raw, ok, err := s.kv.GetItem(SessionListKey)
	if err != nil {
		LogWarn("Failed to read session list: %v", err)
		return []ChatSession{}
	}
	if !ok || raw == "" {
		return []ChatSession{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		LogWarn("Ignoring malformed session list: %v", err)
		return []ChatSession{}
	}

	sessions := make([]ChatSession, 0, len(items))
	for _, item := range items {
		var entry map[string]interface{}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		id, ok := entry["id"].(string)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		createdAt, _ := entry["createdAt"].(string)
		updatedAt, _ := entry["updatedAt"].(string)

		if name == "" {
			name = DefaultSessionName(len(sessions) + 1)
		}
		if createdAt == "" {
			createdAt = formatTime(s.now())
		}
		if updatedAt == "" {
			updatedAt = createdAt
		}
		sessions = append(sessions, ChatSession{
			ID:        id,
			Name:      name,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}
	return sessions
}

func (s *SessionStore) save(sessions []ChatSession) error {
	if sessions == nil {
		sessions = []ChatSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return s.kv.SetItem(SessionListKey, string(data))
}
