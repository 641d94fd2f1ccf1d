package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat string
)

// keyLister is implemented by stores that can enumerate their keys
type keyLister interface {
	Keys(pattern string) ([]string, error)
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the raw local session storage",
	Long: `Print the raw entries kept in local storage: the session list and the
last-active session pointer. Useful when the session list looks wrong.

Examples:
  horizon-chat inspect                    # Text output
  horizon-chat inspect --format json      # JSON output
  horizon-chat inspect --store badger     # Inspect the Badger store`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFormat != "text" && inspectFormat != "json" {
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}

		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		kv, err := internal.OpenKeyValueStore(cfg.StoreDriver, cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
		}
		defer func() { _ = kv.Close() }()

		entries, err := readEntries(kv)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if inspectFormat == "json" {
			return writeEntriesJSON(out, entries)
		}
		writeEntriesText(out, cfg, entries)
		return nil
	},
}

func readEntries(kv internal.KeyValueStore) (map[string]string, error) {
	keys := []string{internal.SessionListKey, internal.LastSessionKey}
	if lister, ok := kv.(keyLister); ok {
		listed, err := lister.Keys("%")
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		keys = listed
	}

	entries := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok, err := kv.GetItem(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if ok {
			entries[key] = value
		}
	}
	return entries, nil
}

func writeEntriesJSON(out io.Writer, entries map[string]string) error {
	doc := make(map[string]interface{}, len(entries))
	for key, value := range entries {
		if json.Valid([]byte(value)) {
			doc[key] = json.RawMessage(value)
		} else {
			doc[key] = value
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeEntriesText(out io.Writer, cfg *internal.Config, entries map[string]string) {
	_, _ = fmt.Fprintf(out, "📋 Store: %s (%s)\n", cfg.StoreDriver, cfg.DataDir)
	_, _ = fmt.Fprintf(out, "📊 Found %d entr(ies)\n\n", len(entries))

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		_, _ = fmt.Fprintln(out, titleStyle.Render(key))
		value := entries[key]
		if len(value) > 500 {
			value = value[:500] + fmt.Sprintf("... (%d bytes)", len(entries[key]))
		}
		_, _ = fmt.Fprintf(out, "  %s\n\n", value)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "text", "Output format (text, json)")
}
