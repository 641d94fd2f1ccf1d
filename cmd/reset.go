package cmd

import (
	"context"
	"fmt"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <session-id>",
	Short: "Clear a session on the backend and delete it locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := resolveSessionID(a.store.List(), args[0])
		if err != nil {
			return err
		}
		err = internal.ShowProgress(context.Background(), fmt.Sprintf("Resetting session %s", shortID(id)), func() error {
			return a.engine.ResetSession(context.Background(), id)
		})
		if err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Reset session")+" "+idStyle.Render(id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
