package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/horizonlabs/horizon-chat/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	conv := internal.CreateTestConversation("test-json")

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(conv, &buf); err != nil {
		t.Fatalf("JSONExporter.Export() error = %v", err)
	}

	var decoded internal.Conversation
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Session.ID != "test-json" {
		t.Errorf("Session.ID = %q, want test-json", decoded.Session.ID)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(decoded.Messages))
	}
	if decoded.Messages[1].Role != internal.RoleAssistant {
		t.Errorf("Messages[1].Role = %q, want assistant", decoded.Messages[1].Role)
	}

	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output should be indented")
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	if got := (&JSONExporter{}).Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
