package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session locally",
	Long: `Remove a session from the local list. The backend keeps its history;
use 'horizon-chat reset' to clear that as well.`,
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
		if err := a.engine.DeleteSession(id); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Deleted session")+" "+idStyle.Render(id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
