package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/horizonlabs/horizon-chat/testutil"
)

// resetFlags restores package-level flag values between command runs
func resetFlags() {
	verbose = false
	configPath = ""
	backendURL = ""
	storeDriver = ""
	dataDir = ""
	listRemote = false
	newName = ""
	limit = 0
	sendSession = ""
	format = "jsonl"
	outputDir = "./exports"
	healthcheckDetails = false
	inspectFormat = "text"

	// cobra keeps --help set on a command once it has been parsed
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
}

// setupEnv points the CLI at a fresh data directory and the given backend
func setupEnv(t *testing.T, backend *testutil.FakeBackend) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	t.Setenv(internal.EnvDataDir, dir)
	t.Setenv(internal.EnvStore, internal.StoreSQLite)
	t.Setenv(internal.EnvRequestTimeout, "5s")
	if backend != nil {
		t.Setenv(internal.EnvBackendURL, backend.URL)
	} else {
		t.Setenv(internal.EnvBackendURL, "http://127.0.0.1:1")
	}
	return dir
}

// runCommand executes the root command with args and returns its stdout
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandWithInput(t, nil, args...)
}

func runCommandWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	if in == nil {
		in = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), err
}

// seedSessions writes sessions (and optionally the last-active id) to the sqlite store in dir
func seedSessions(t *testing.T, dir, lastActive string, sessions ...internal.ChatSession) {
	t.Helper()
	kv, err := internal.OpenKeyValueStore(internal.StoreSQLite, dir)
	if err != nil {
		t.Fatalf("OpenKeyValueStore() error = %v", err)
	}
	defer func() { _ = kv.Close() }()

	raw, err := json.Marshal(sessions)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if err := kv.SetItem(internal.SessionListKey, string(raw)); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if lastActive != "" {
		if err := internal.NewSessionStore(kv).SetLastActive(lastActive); err != nil {
			t.Fatalf("SetLastActive() error = %v", err)
		}
	}
}

// storedSessions reads the session list back from the sqlite store in dir
func storedSessions(t *testing.T, dir string) ([]internal.ChatSession, string) {
	t.Helper()
	kv, err := internal.OpenKeyValueStore(internal.StoreSQLite, dir)
	if err != nil {
		t.Fatalf("OpenKeyValueStore() error = %v", err)
	}
	defer func() { _ = kv.Close() }()

	store := internal.NewSessionStore(kv)
	return store.List(), store.LastActive()
}

func testSession(id, name string) internal.ChatSession {
	return internal.NewChatSession(id, name, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
}
