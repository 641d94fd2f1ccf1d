package testutil

import (
	"os"
	"strconv"
	"sync"
	"testing"
	"time"
)

// CreateTempDir creates a temporary directory removed when the test ends
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "horizon-chat-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// FixedClock returns a clock that always reports ts
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// SequenceIDs returns a generator yielding prefix-1, prefix-2, ...
func SequenceIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
