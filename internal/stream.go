package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
)

// StreamRequest is the body posted to the streaming chat endpoint
type StreamRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	UseGuidance *bool  `json:"use_guidance,omitempty"`
}

// StreamStarter opens streams for the engine
type StreamStarter interface {
	Start(ctx context.Context, sessionID, text string) (*StreamSession, error)
}

// StreamClient opens streaming chat requests and enforces at most one
// in-flight stream per session
type StreamClient struct {
	baseURL     string
	http        HTTPDoer
	useGuidance *bool

	mu       sync.Mutex
	inflight map[string]*StreamSession
}

// NewStreamClient creates a StreamClient for the backend at baseURL
func NewStreamClient(baseURL string, doer HTTPDoer) *StreamClient {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &StreamClient{
		baseURL:  normalizeBaseURL(baseURL),
		http:     doer,
		inflight: make(map[string]*StreamSession),
	}
}

// WithGuidance sets the use_guidance flag sent with every request
func (c *StreamClient) WithGuidance(enabled bool) *StreamClient {
	c.useGuidance = &enabled
	return c
}

// Start registers a stream for sessionID and returns it in the Sending state.
// The request is issued by Run. ErrStreamInFlight is returned if the
// session already has a stream that has not finished.
func (c *StreamClient) Start(ctx context.Context, sessionID, text string) (*StreamSession, error) {
	body, err := json.Marshal(StreamRequest{
		SessionID:   sessionID,
		Message:     text,
		UseGuidance: c.useGuidance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stream request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[sessionID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrStreamInFlight, sessionID)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &StreamSession{
		SessionID: sessionID,
		client:    c,
		endpoint:  c.baseURL + "/chat/stream",
		body:      body,
		ctx:       streamCtx,
		cancel:    cancel,
		state:     StreamSending,
		done:      make(chan struct{}),
	}
	c.inflight[sessionID] = s
	return s, nil
}

// InFlight reports whether sessionID has an unfinished stream
func (c *StreamClient) InFlight(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[sessionID]
	return ok
}

func (c *StreamClient) release(s *StreamSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[s.SessionID] == s {
		delete(c.inflight, s.SessionID)
	}
}

// StreamSession is one request/response stream for a single user message
type StreamSession struct {
	SessionID string

	client   *StreamClient
	endpoint string
	body     []byte
	ctx      context.Context
	cancel   context.CancelFunc

	abortRequested atomic.Bool
	ran            atomic.Bool
	done           chan struct{}

	mu    sync.Mutex
	state StreamState
	err   error
}

// State returns the current lifecycle state
func (s *StreamSession) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure recorded for a Failed stream
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the stream reaches a terminal state
func (s *StreamSession) Done() <-chan struct{} {
	return s.done
}

// Abort cancels the transport. Events read after the abort are not applied
// and the stream ends Aborted, which is not an error. Aborting a finished
// stream does nothing.
func (s *StreamSession) Abort() {
	s.mu.Lock()
	terminal := s.state.IsTerminal()
	s.mu.Unlock()
	if terminal {
		return
	}
	s.abortRequested.Store(true)
	s.cancel()
}

// Aborted reports whether the stream was cancelled by the user or by its context
func (s *StreamSession) Aborted() bool {
	return s.abortRequested.Load() || s.ctx.Err() != nil
}

// Run issues the request and feeds decoded events to apply in arrival
// order until the stream terminates. It returns the terminal state.
// Failure events are delivered to apply before Run returns.
func (s *StreamSession) Run(apply func(StreamEvent)) StreamState {
	if s.ran.Swap(true) {
		<-s.done
		return s.State()
	}
	defer s.client.release(s)

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.endpoint, bytes.NewReader(s.body))
	if err != nil {
		return s.fail(apply, &RequestError{Endpoint: s.endpoint, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	LogDebug("Opening stream for session %s", s.SessionID)
	resp, err := s.client.http.Do(req)
	if err != nil {
		if s.Aborted() {
			return s.finish(StreamAborted, nil)
		}
		return s.fail(apply, &RequestError{Endpoint: s.endpoint, Err: err})
	}
	defer resp.Body.Close()

	// 204 carries no body to stream
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusNoContent || resp.Body == nil {
		return s.fail(apply, &RequestError{Endpoint: s.endpoint, StatusCode: resp.StatusCode})
	}

	reader := NewFrameReader(resp.Body)
	for {
		raw, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return s.finish(StreamCompleted, nil)
		}
		if s.Aborted() {
			return s.finish(StreamAborted, nil)
		}
		if err != nil {
			return s.fail(apply, &RequestError{Endpoint: s.endpoint, Err: err})
		}

		event, err := DecodeEvent(raw)
		if err != nil {
			LogWarn("Malformed stream payload for session %s: %v", s.SessionID, err)
			apply(StreamEvent{Kind: EventParseFailure, Message: ParseFailureText})
			s.cancel()
			return s.finish(StreamFailed, err)
		}

		switch event.Kind {
		case EventToken:
			apply(event)
		case EventError:
			apply(event)
			s.cancel()
			return s.finish(StreamFailed, &StreamError{SessionID: s.SessionID, Message: event.Message})
		case EventEnd:
			return s.finish(StreamCompleted, nil)
		default:
			LogDebug("Ignoring %s event for session %s", raw.Type, s.SessionID)
		}
	}
}

func (s *StreamSession) fail(apply func(StreamEvent), err *RequestError) StreamState {
	LogWarn("Stream request for session %s failed: %v", s.SessionID, err)
	apply(StreamEvent{Kind: EventRequestFailure, Message: err.Error()})
	s.cancel()
	return s.finish(StreamFailed, err)
}

func (s *StreamSession) finish(state StreamState, err error) StreamState {
	s.mu.Lock()
	if s.state.IsTerminal() {
		state = s.state
	} else {
		s.state = state
		s.err = err
	}
	s.mu.Unlock()

	s.cancel()
	close(s.done)
	LogDebug("Stream for session %s finished: %s", s.SessionID, state)
	return state
}
