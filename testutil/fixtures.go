package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TokenEvent renders a token frame as the backend emits it
func TokenEvent(data string) string {
	payload, _ := json.Marshal(map[string]string{"type": "token", "data": data})
	return fmt.Sprintf("data: %s\n\n", payload)
}

// ErrorEvent renders a server error frame
func ErrorEvent(message string) string {
	payload, _ := json.Marshal(map[string]string{"type": "error", "message": message})
	return fmt.Sprintf("event: error\ndata: %s\n\n", payload)
}

// EndEvent renders the terminating frame
func EndEvent() string {
	return "event: end\ndata: {}\n\n"
}

// SSEBody concatenates frames into one stream body
func SSEBody(frames ...string) string {
	return strings.Join(frames, "")
}

// TokenStream renders a stream of tokens followed by the end frame
func TokenStream(tokens ...string) string {
	var b strings.Builder
	for _, token := range tokens {
		b.WriteString(TokenEvent(token))
	}
	b.WriteString(EndEvent())
	return b.String()
}

// SplitEvery cuts body into chunks of at most n bytes, ignoring character
// boundaries
func SplitEvery(body string, n int) []string {
	if n <= 0 {
		return []string{body}
	}
	var chunks []string
	for len(body) > n {
		chunks = append(chunks, body[:n])
		body = body[n:]
	}
	if body != "" {
		chunks = append(chunks, body)
	}
	return chunks
}

// SplitAt cuts body at the given byte offsets
func SplitAt(body string, offsets ...int) []string {
	var chunks []string
	prev := 0
	for _, off := range offsets {
		if off <= prev || off >= len(body) {
			continue
		}
		chunks = append(chunks, body[prev:off])
		prev = off
	}
	return append(chunks, body[prev:])
}

// SessionListJSON renders a stored session list the way the client persists it
func SessionListJSON(entries ...map[string]interface{}) string {
	if entries == nil {
		entries = []map[string]interface{}{}
	}
	data, _ := json.Marshal(entries)
	return string(data)
}
