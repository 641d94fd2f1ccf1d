package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// StreamScript describes how the fake backend answers one /chat/stream call
type StreamScript struct {
	Status int           // defaults to 200
	Chunks []string      // written and flushed one at a time
	Delay  time.Duration // pause between chunks
	Block  chan struct{} // if set, hold the connection open until closed or the client leaves
}

// HistoryScript describes how the fake backend answers /chat/history
type HistoryScript struct {
	Status   int // defaults to 200
	Messages []HistoryMessage
	Block    chan struct{} // if set, wait until closed before answering
}

// HistoryMessage is a history record as the backend serializes it
type HistoryMessage struct {
	Role      string  `json:"role"`
	Content   *string `json:"content"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// Msg builds a HistoryMessage with content and an optional timestamp
func Msg(role, content, createdAt string) HistoryMessage {
	m := HistoryMessage{Role: role, Content: &content}
	if createdAt != "" {
		m.CreatedAt = &createdAt
	}
	return m
}

// StreamCall records one request received on /chat/stream
type StreamCall struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	UseGuidance *bool  `json:"use_guidance,omitempty"`
}

// FakeBackend is a scripted stand-in for the chat backend
type FakeBackend struct {
	URL    string
	Server *httptest.Server

	mu            sync.Mutex
	streams       map[string][]StreamScript
	history       map[string]HistoryScript
	remote        []map[string]interface{}
	healthStatus  string
	streamCalls   []StreamCall
	historyCalls  map[string]int
	resets        []string
	resetStatus   int
	sessionStatus int
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		streams:       make(map[string][]StreamScript),
		history:       make(map[string]HistoryScript),
		historyCalls:  make(map[string]int),
		healthStatus:  "ok",
		resetStatus:   http.StatusOK,
		sessionStatus: http.StatusOK,
	}

	router := gin.New()
	router.GET("/health", b.handleHealth)
	router.POST("/chat/stream", b.handleStream)
	router.GET("/chat/history", b.handleHistory)
	router.POST("/chat/reset", b.handleReset)
	router.GET("/chat/sessions", b.handleSessions)

	b.Server = httptest.NewServer(router)
	b.URL = b.Server.URL
	t.Cleanup(b.Server.Close)
	return b
}

// QueueStream queues a response for the next stream call on sessionID.
// An empty sessionID matches any session.
func (b *FakeBackend) QueueStream(sessionID string, script StreamScript) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams[sessionID] = append(b.streams[sessionID], script)
}

// SetHistory sets the history served for sessionID
func (b *FakeBackend) SetHistory(sessionID string, script HistoryScript) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history[sessionID] = script
}

// SetHealth sets the status reported by /health
func (b *FakeBackend) SetHealth(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthStatus = status
}

// SetResetStatus sets the HTTP status returned by /chat/reset
func (b *FakeBackend) SetResetStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetStatus = status
}

// SetRemoteSessions sets the sessions listed by /chat/sessions; a non-200
// status makes the endpoint fail with it
func (b *FakeBackend) SetRemoteSessions(status int, sessions []map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionStatus = status
	b.remote = sessions
}

// StreamCalls returns the stream requests received so far
func (b *FakeBackend) StreamCalls() []StreamCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]StreamCall(nil), b.streamCalls...)
}

// HistoryCalls returns how many history requests sessionID received
func (b *FakeBackend) HistoryCalls(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.historyCalls[sessionID]
}

// Resets returns the session ids reset so far
func (b *FakeBackend) Resets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.resets...)
}

func (b *FakeBackend) handleHealth(c *gin.Context) {
	b.mu.Lock()
	status := b.healthStatus
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (b *FakeBackend) handleStream(c *gin.Context) {
	var call StreamCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	b.streamCalls = append(b.streamCalls, call)
	script, ok := b.nextStream(call.SessionID)
	b.mu.Unlock()

	if !ok {
		script = StreamScript{Chunks: []string{EndEvent()}}
	}
	if script.Status != 0 && script.Status != http.StatusOK {
		c.Status(script.Status)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for i, chunk := range script.Chunks {
		if i > 0 && script.Delay > 0 {
			select {
			case <-time.After(script.Delay):
			case <-ctx.Done():
				return
			}
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return
		}
		c.Writer.Flush()
	}

	if script.Block != nil {
		select {
		case <-script.Block:
		case <-ctx.Done():
		}
	}
}

// nextStream pops the queued script for sessionID, falling back to the
// wildcard queue; the caller holds b.mu
func (b *FakeBackend) nextStream(sessionID string) (StreamScript, bool) {
	for _, key := range []string{sessionID, ""} {
		queue := b.streams[key]
		if len(queue) == 0 {
			continue
		}
		b.streams[key] = queue[1:]
		return queue[0], true
	}
	return StreamScript{}, false
}

func (b *FakeBackend) handleHistory(c *gin.Context) {
	sessionID := c.Query("session_id")

	b.mu.Lock()
	b.historyCalls[sessionID]++
	script, ok := b.history[sessionID]
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "session not found"})
		return
	}
	if script.Block != nil {
		select {
		case <-script.Block:
		case <-c.Request.Context().Done():
			return
		}
	}
	if script.Status != 0 && script.Status != http.StatusOK {
		c.Status(script.Status)
		return
	}

	messages := script.Messages
	if messages == nil {
		messages = []HistoryMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (b *FakeBackend) handleReset(c *gin.Context) {
	var body struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	status := b.resetStatus
	if status == http.StatusOK {
		b.resets = append(b.resets, body.SessionID)
		delete(b.history, body.SessionID)
	}
	b.mu.Unlock()

	if status != http.StatusOK {
		c.Status(status)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (b *FakeBackend) handleSessions(c *gin.Context) {
	b.mu.Lock()
	status := b.sessionStatus
	sessions := b.remote
	b.mu.Unlock()

	if status != http.StatusOK {
		c.Status(status)
		return
	}
	if sessions == nil {
		sessions = []map[string]interface{}{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
