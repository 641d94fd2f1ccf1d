package internal

import (
	"path/filepath"
	"testing"

	"github.com/horizonlabs/horizon-chat/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "test.db")
				testutil.CreateKVFixture(t, dbPath, map[string]string{"a": "1"})
				return dbPath
			},
			wantErr: false,
		},
		{
			name: "new database",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "new.db")
			},
			wantErr: false,
		},
		{
			name: "missing parent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "missing", "dir", "new.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setup(t)
			db, err := OpenDatabase(dbPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			var count int
			if err := db.Get(&count, "SELECT COUNT(*) FROM kv"); err != nil {
				t.Errorf("kv table missing: %v", err)
			}
		})
	}
}

func TestQueryKV(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "kv.db")
	testutil.CreateKVFixture(t, dbPath, map[string]string{
		"horizon-chat-sessions":     "[]",
		"horizon-chat-last-session": "abc",
		"other":                     "x",
	})

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"prefix", "horizon-chat-%", []string{"horizon-chat-last-session", "horizon-chat-sessions"}},
		{"exact", "other", []string{"other"}},
		{"none", "missing%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := QueryKV(db, tt.pattern)
			if err != nil {
				t.Fatalf("QueryKV() error = %v", err)
			}
			if len(pairs) != len(tt.want) {
				t.Fatalf("QueryKV() returned %d rows, want %d", len(pairs), len(tt.want))
			}
			for i, pair := range pairs {
				if pair.Key != tt.want[i] {
					t.Errorf("QueryKV()[%d].Key = %q, want %q", i, pair.Key, tt.want[i])
				}
			}
		})
	}
}
