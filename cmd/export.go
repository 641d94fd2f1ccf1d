package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/horizonlabs/horizon-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export sessions to file",
	Long: `Export the confirmed history of chat sessions to various formats
(jsonl, md, yaml, json).

Without an id every local session is exported. Histories are read from
the backend, so only messages the backend has stored are written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter first so a bad format fails before any I/O
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.store.List()
		if len(args) == 1 {
			id, err := resolveSessionID(sessions, args[0])
			if err != nil {
				return err
			}
			session, _ := a.store.Get(id)
			sessions = []internal.ChatSession{session}
		}
		if len(sessions) == 0 {
			internal.PrintInfo("No sessions to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		ctx := context.Background()
		exported := 0
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			for _, session := range sessions {
				history, err := a.history.Fetch(ctx, session.ID)
				if err != nil {
					internal.LogError("Failed to load history for session %s: %v", session.ID, err)
					continue
				}
				conv := &internal.Conversation{Session: session, Messages: history.Messages}

				filename := fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension())
				path := filepath.Join(outputDir, filename)
				if err := writeExport(exporter, conv, path); err != nil {
					internal.LogError("Failed to export session %s: %v", session.ID, err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if exported < len(sessions) {
			return fmt.Errorf("exported %d of %d session(s)", exported, len(sessions))
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, outputDir))
		return nil
	},
}

func writeExport(exporter export.Exporter, conv *internal.Conversation, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(conv, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
}
