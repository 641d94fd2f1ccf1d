package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionResetter clears a session's conversation state on the backend
type SessionResetter interface {
	ResetSession(ctx context.Context, sessionID string) error
}

// EngineOptions configures an Engine. Store, History and Streams are required.
type EngineOptions struct {
	Store    *SessionStore
	History  HistoryFetcher
	Streams  StreamStarter
	Resetter SessionResetter

	WelcomeText string
	Now         func() time.Time
	NewID       func() string

	// OnChange is called after every state change, outside the engine lock
	OnChange func(Snapshot)
}

// Snapshot is a consistent copy of the engine state
type Snapshot struct {
	Sessions       []ChatSession
	ActiveID       string
	Transcript     Transcript
	Streaming      bool
	LoadingHistory bool
	Error          string
}

// ActiveSession returns the active session entry, if any
func (s Snapshot) ActiveSession() (ChatSession, bool) {
	for _, session := range s.Sessions {
		if session.ID == s.ActiveID {
			return session, true
		}
	}
	return ChatSession{}, false
}

// Engine owns the session list, the active transcript and the in-flight stream
type Engine struct {
	store    *SessionStore
	history  HistoryFetcher
	streams  StreamStarter
	resetter SessionResetter
	welcome  Message
	now      func() time.Time
	newID    func() string
	onChange func(Snapshot)

	mu         sync.Mutex
	sessions   []ChatSession
	activeID   string
	transcript Transcript
	stream     *StreamSession
	loading    bool
	lastError  string
	generation uint64
	closed     bool
}

// NewEngine creates an Engine. Call Init to restore persisted sessions.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Store == nil || opts.History == nil || opts.Streams == nil {
		return nil, fmt.Errorf("engine requires a session store, history fetcher and stream starter")
	}
	e := &Engine{
		store:    opts.Store,
		history:  opts.History,
		streams:  opts.Streams,
		resetter: opts.Resetter,
		welcome:  NewWelcomeMessage(opts.WelcomeText),
		now:      opts.Now,
		newID:    opts.NewID,
		onChange: opts.OnChange,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	e.transcript = NewTranscript(e.welcome)
	e.sessions = e.store.List()
	return e, nil
}

// Init restores the persisted session list and activates the last-active
// session, or the first one. A fresh store gets a "Chat 1" session.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	sessions, initial, err := e.store.Bootstrap()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.sessions = sessions
	e.mu.Unlock()

	LogDebug("Restored %d sessions, activating %s", len(sessions), initial)
	return e.ActivateSession(ctx, initial)
}

// ActivateSession makes id the active session and restores its history.
// It is rejected while a stream is sending. A fetch that completes after
// a newer activation is discarded.
func (e *Engine) ActivateSession(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.sendingLocked() {
		e.mu.Unlock()
		return ErrStreamInFlight
	}
	if _, ok := e.store.Get(id); !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.dropStreamLocked()
	e.generation++
	gen := e.generation
	e.activeID = id
	e.transcript = NewTranscript(e.welcome)
	e.loading = true
	e.lastError = ""
	if err := e.store.SetLastActive(id); err != nil {
		LogWarn("Failed to persist last active session: %v", err)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	LogDebug("Activating session %s", id)
	history, err := e.history.Fetch(ctx, id)

	e.mu.Lock()
	if e.generation != gen || e.activeID != id {
		e.mu.Unlock()
		LogDebug("Discarding stale history for session %s", id)
		return nil
	}
	e.loading = false

	var result error
	switch {
	case err != nil && ctx.Err() != nil:
		result = ctx.Err()
	case err != nil:
		LogWarn("Failed to load history for session %s: %v", id, err)
		e.lastError = err.Error()
	default:
		e.transcript = NewTranscript(e.welcome, history.Messages...)
		if len(history.Messages) > 0 {
			e.touchSessionLocked(id, history.LatestTimestamp)
		}
	}
	snap = e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return result
}

// CreateSession adds a new session, makes it active and resets the
// transcript. Any in-flight stream is aborted.
func (e *Engine) CreateSession() (ChatSession, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ChatSession{}, ErrEngineClosed
	}
	session, err := e.createSessionLocked()
	if err != nil {
		e.mu.Unlock()
		return ChatSession{}, err
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	LogDebug("Created session %s (%s)", session.ID, session.Name)
	return session, nil
}

// RenameSession changes a session's name. A name that is empty after
// trimming is ignored.
func (e *Engine) RenameSession(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if _, err := e.store.Update(id, func(s *ChatSession) { s.Name = name }); err != nil {
		e.mu.Unlock()
		return err
	}
	e.sessions = e.store.List()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// DeleteSession removes a session. Deleting the active session leaves no
// session active and resets the transcript to the welcome message.
func (e *Engine) DeleteSession(id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if err := e.store.Remove(id); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.activeID == id {
		e.dropStreamLocked()
		e.generation++
		e.activeID = ""
		e.transcript = NewTranscript(e.welcome)
		e.loading = false
		e.lastError = ""
		if err := e.store.ClearLastActive(); err != nil {
			LogWarn("Failed to clear last active session: %v", err)
		}
	}
	e.sessions = e.store.List()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	LogDebug("Deleted session %s", id)
	return nil
}

// ResetSession clears the session on the backend, then deletes it locally
func (e *Engine) ResetSession(ctx context.Context, id string) error {
	if e.resetter == nil {
		return fmt.Errorf("engine has no backend resetter")
	}
	if _, ok := e.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := e.resetter.ResetSession(ctx, id); err != nil {
		return err
	}
	return e.DeleteSession(id)
}

// Send streams a reply to text on the active session, creating a session
// if none is active. It blocks until the stream ends and returns its
// terminal state. Network and server failures are reported in the
// transcript and Snapshot.Error, not as the returned error. Empty input
// is ignored.
func (e *Engine) Send(ctx context.Context, text string) (StreamState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return StreamIdle, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return StreamIdle, ErrEngineClosed
	}
	if e.stream != nil {
		e.mu.Unlock()
		return StreamIdle, ErrStreamInFlight
	}
	if e.loading {
		e.mu.Unlock()
		return StreamIdle, ErrHistoryLoading
	}
	if e.activeID == "" {
		if _, err := e.createSessionLocked(); err != nil {
			e.mu.Unlock()
			return StreamIdle, err
		}
	}
	sessionID := e.activeID

	stream, err := e.streams.Start(ctx, sessionID, text)
	if err != nil {
		e.mu.Unlock()
		return StreamIdle, err
	}

	now := formatTime(e.now())
	assistantID := e.newID()
	t := e.transcript.Clone()
	t.Messages = append(t.Messages,
		Message{ID: e.newID(), Role: RoleUser, Text: text, CreatedAt: now},
		Message{ID: assistantID, Role: RoleAssistant, Text: "", CreatedAt: now},
	)
	t.OpenID = assistantID
	t.Provisional = true
	e.transcript = t
	e.stream = stream
	e.lastError = ""
	gen := e.generation
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	LogDebug("Streaming reply for session %s", sessionID)
	state := stream.Run(func(ev StreamEvent) {
		e.applyStreamEvent(stream, assistantID, ev)
	})

	var history History
	var historyErr error
	if state == StreamCompleted {
		history, historyErr = e.history.Fetch(ctx, sessionID)
	}

	e.mu.Lock()
	if e.stream == stream {
		e.stream = nil
		e.transcript.OpenID = ""
	}
	current := e.generation == gen && e.activeID == sessionID
	switch {
	case state != StreamCompleted || !current:
	case historyErr != nil:
		// the streamed text stays as the best available answer
		LogWarn("Failed to confirm history for session %s: %v", sessionID, historyErr)
		e.lastError = historyErr.Error()
	default:
		e.transcript = NewTranscript(e.welcome, history.Messages...)
		e.touchSessionLocked(sessionID, history.LatestTimestamp)
	}
	snap = e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	LogDebug("Stream for session %s ended: %s", sessionID, state)
	return state, nil
}

// Abort cancels the in-flight stream, if any. The stream ends Aborted and
// no error is recorded.
func (e *Engine) Abort() {
	e.mu.Lock()
	stream := e.stream
	e.mu.Unlock()
	if stream != nil {
		stream.Abort()
	}
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close aborts any in-flight stream; later operations return ErrEngineClosed
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.dropStreamLocked()
	return nil
}

func (e *Engine) applyStreamEvent(stream *StreamSession, targetID string, ev StreamEvent) {
	e.mu.Lock()
	if e.stream != stream || stream.abortRequested.Load() {
		e.mu.Unlock()
		return
	}
	e.transcript = ApplyEvent(e.transcript, targetID, ev)
	if ev.Kind.IsFailure() {
		e.lastError = ev.Message
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) createSessionLocked() (ChatSession, error) {
	session, err := e.store.Create()
	if err != nil {
		return ChatSession{}, err
	}
	e.dropStreamLocked()
	e.generation++
	e.activeID = session.ID
	e.transcript = NewTranscript(e.welcome)
	e.loading = false
	e.lastError = ""
	if err := e.store.SetLastActive(session.ID); err != nil {
		LogWarn("Failed to persist last active session: %v", err)
	}
	e.sessions = e.store.List()
	return session, nil
}

// sendingLocked reports whether the current stream is still receiving
func (e *Engine) sendingLocked() bool {
	return e.stream != nil && !e.stream.State().IsTerminal()
}

// dropStreamLocked aborts and forgets the current stream handle
func (e *Engine) dropStreamLocked() {
	if e.stream == nil {
		return
	}
	e.stream.Abort()
	e.stream = nil
	e.transcript.OpenID = ""
}

func (e *Engine) touchSessionLocked(id, updatedAt string) {
	_, err := e.store.Update(id, func(s *ChatSession) { s.UpdatedAt = updatedAt })
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		LogWarn("Failed to update session %s: %v", id, err)
	}
	e.sessions = e.store.List()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Sessions:       append([]ChatSession(nil), e.sessions...),
		ActiveID:       e.activeID,
		Transcript:     e.transcript.Clone(),
		Streaming:      e.stream != nil,
		LoadingHistory: e.loading,
		Error:          e.lastError,
	}
}

func (e *Engine) notify(snap Snapshot) {
	if e.onChange != nil {
		e.onChange(snap)
	}
}
