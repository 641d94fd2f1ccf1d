package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// useCmd represents the use command
var useCmd = &cobra.Command{
	Use:   "use <session-id>",
	Short: "Make a session active",
	Long: `Make a session the active one. The active session is used by send, show
and chat, and is remembered between runs.`,
	Args: cobra.ExactArgs(1),
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
		if err := a.engine.ActivateSession(context.Background(), id); err != nil {
			return err
		}

		snap := a.engine.Snapshot()
		session, _ := snap.ActiveSession()
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Active session: %s", session.Name))+" "+idStyle.Render(session.ID))
		if snap.Error != "" {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠ "+snap.Error))
		} else {
			_, _ = fmt.Fprintln(out, dateStyle.Render(fmt.Sprintf("%d message(s) restored", len(snap.Transcript.Conversation()))))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
