package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/horizonlabs/horizon-chat/internal"
)

// JSONLExporter exports conversations in JSONL format (one message per line),
// using the backend's history record shape
type JSONLExporter struct{}

// Export exports a conversation to JSONL format
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	if err := checkConversation(conv); err != nil {
		return err
	}
	enc := json.NewEncoder(w)

	for _, msg := range conv.Messages {
		obj := map[string]interface{}{
			"session_id": conv.Session.ID,
			"role":       msg.Role,
			"content":    msg.Text,
		}

		if msg.CreatedAt != "" {
			obj["created_at"] = msg.CreatedAt
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
