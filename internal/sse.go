package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	sseBlockSeparator = "\n\n"
	sseReadSize       = 4096

	// DefaultEventType is used for blocks without an event: line
	DefaultEventType = "message"
)

// RawEvent is one SSE block reduced to its event type and data payload
type RawEvent struct {
	Type string
	Data string
}

// FrameSplitter buffers stream chunks and cuts them into SSE blocks.
// Chunks may end anywhere, including inside a multi-byte character or in
// the middle of the block separator.
type FrameSplitter struct {
	buf []byte
}

// Feed appends a chunk and returns every block it completed, in order.
// Blocks are trimmed; empty ones are skipped.
func (f *FrameSplitter) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)

	var blocks []string
	sep := []byte(sseBlockSeparator)
	for {
		i := bytes.Index(f.buf, sep)
		if i < 0 {
			break
		}
		if block := decodeBlock(f.buf[:i]); block != "" {
			blocks = append(blocks, block)
		}
		f.buf = f.buf[i+len(sep):]
	}
	// drop the consumed prefix so the buffer does not pin old chunks
	f.buf = append([]byte(nil), f.buf...)
	return blocks
}

// Flush returns the unterminated trailing block left at end of stream
func (f *FrameSplitter) Flush() (string, bool) {
	block := decodeBlock(f.buf)
	f.buf = nil
	return block, block != ""
}

// decodeBlock converts complete block bytes to text. Invalid UTF-8 becomes
// U+FFFD; the separator is ASCII so a block never ends mid-character.
func decodeBlock(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "�"))
}

// ParseBlock extracts the event type and data payload of a block.
// The last data: line wins. Blocks without data are reported as !ok.
func ParseBlock(block string) (RawEvent, bool) {
	event := RawEvent{Type: DefaultEventType}
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, "event:") {
			event.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
		if strings.HasPrefix(line, "data:") {
			event.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if event.Type == "" {
		event.Type = DefaultEventType
	}
	if event.Data == "" {
		return RawEvent{}, false
	}
	return event, true
}

// FrameReader yields SSE events from a response body in arrival order
type FrameReader struct {
	r        io.Reader
	splitter FrameSplitter
	pending  []string
	chunk    []byte
	eof      bool
}

// NewFrameReader creates a FrameReader over r
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:     r,
		chunk: make([]byte, sseReadSize),
	}
}

// Next returns the next event, io.EOF once the stream and any trailing
// block are exhausted, or the underlying read error.
func (fr *FrameReader) Next() (RawEvent, error) {
	for {
		for len(fr.pending) > 0 {
			block := fr.pending[0]
			fr.pending = fr.pending[1:]
			if event, ok := ParseBlock(block); ok {
				return event, nil
			}
		}

		if fr.eof {
			return RawEvent{}, io.EOF
		}

		n, err := fr.r.Read(fr.chunk)
		if n > 0 {
			fr.pending = append(fr.pending, fr.splitter.Feed(fr.chunk[:n])...)
		}
		if errors.Is(err, io.EOF) {
			fr.eof = true
			if block, ok := fr.splitter.Flush(); ok {
				fr.pending = append(fr.pending, block)
			}
			continue
		}
		if err != nil {
			return RawEvent{}, err
		}
	}
}

// EventKind classifies a decoded stream event
type EventKind int

const (
	// EventIgnored is a well-formed payload this client has no use for
	EventIgnored EventKind = iota
	// EventToken carries a content fragment for the open assistant message
	EventToken
	// EventError is a server-reported error; terminal
	EventError
	// EventEnd is the normal termination signal
	EventEnd
	// EventParseFailure is synthesized when a payload is not valid JSON; terminal
	EventParseFailure
	// EventRequestFailure is synthesized for transport and HTTP status failures; terminal
	EventRequestFailure
)

func (k EventKind) String() string {
	switch k {
	case EventToken:
		return "token"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	case EventParseFailure:
		return "parse_failure"
	case EventRequestFailure:
		return "request_failure"
	default:
		return "ignored"
	}
}

// IsFailure reports whether the event terminates the stream with an error
func (k EventKind) IsFailure() bool {
	return k == EventError || k == EventParseFailure || k == EventRequestFailure
}

// StreamEvent is a decoded stream event
type StreamEvent struct {
	Kind    EventKind
	Data    string // token fragment
	Message string // error text for failure kinds
}

const (
	// ParseFailureText is the user-facing message for malformed payloads
	ParseFailureText = "Failed to parse response from server."
	// GenericErrorText is used when an error event carries no message
	GenericErrorText = "An error occurred"
)

// DecodeEvent interprets a raw event's JSON payload. A payload that is not
// valid JSON is returned as a *ParseError and must end the stream.
func DecodeEvent(raw RawEvent) (StreamEvent, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(raw.Data), &payload); err != nil {
		return StreamEvent{}, &ParseError{Source: "sse", Key: raw.Data, Err: err}
	}
	fields, _ := payload.(map[string]interface{})

	switch raw.Type {
	case "error":
		message, _ := fields["message"].(string)
		if message == "" {
			message = GenericErrorText
		}
		return StreamEvent{Kind: EventError, Message: message}, nil
	case "end":
		return StreamEvent{Kind: EventEnd}, nil
	}

	if kind, _ := fields["type"].(string); kind == "token" {
		if data, ok := fields["data"].(string); ok {
			return StreamEvent{Kind: EventToken, Data: data}, nil
		}
	}
	return StreamEvent{Kind: EventIgnored}, nil
}
