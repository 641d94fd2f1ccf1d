package export

import (
	"bytes"
	"testing"

	"github.com/horizonlabs/horizon-chat/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	conv := internal.CreateTestConversation("test-yaml")

	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(conv, &buf); err != nil {
		t.Fatalf("YAMLExporter.Export() error = %v", err)
	}

	var decoded internal.Conversation
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Session.Name != "Test Conversation" {
		t.Errorf("Session.Name = %q, want Test Conversation", decoded.Session.Name)
	}
	if len(decoded.Messages) != 2 || decoded.Messages[0].Text != "Hello, how are you?" {
		t.Errorf("unexpected messages: %+v", decoded.Messages)
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	if got := (&YAMLExporter{}).Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
