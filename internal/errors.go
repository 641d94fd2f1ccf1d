package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamInFlight is returned when a stream is already open for the session
	ErrStreamInFlight = errors.New("a response is already streaming for this session")
	// ErrHistoryLoading is returned when sending while history is still being restored
	ErrHistoryLoading = errors.New("history is still loading")
	// ErrSessionNotFound is returned when an operation names an unknown session
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoActiveSession is returned when no session is active
	ErrNoActiveSession = errors.New("no active session")
	// ErrEngineClosed is returned by operations on a closed engine
	ErrEngineClosed = errors.New("engine closed")
)

// StorageError represents errors accessing the key-value store
type StorageError struct {
	Key string
	Op  string // "open", "get", "set", "remove"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data received from the backend
type ParseError struct {
	Source string // "sse", "history", "sessions"
	Key    string // raw payload or session id
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestError represents a failed request to the backend.
// StatusCode is zero for transport failures.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status %d", e.StatusCode)
	}
	if e.Err == nil {
		return "Request failed"
	}
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StreamError is an application error reported by the server inside the stream
type StreamError struct {
	SessionID string
	Message   string
}

func (e *StreamError) Error() string {
	return e.Message
}

// HistoryError represents a failed history fetch
type HistoryError struct {
	SessionID  string
	StatusCode int
	Err        error
}

func (e *HistoryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to load history (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Unable to load previous messages."
}

func (e *HistoryError) Unwrap() error {
	return e.Err
}
