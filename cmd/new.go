package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	newName string
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a session and make it active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.engine.CreateSession()
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if err := a.engine.RenameSession(session.ID, newName); err != nil {
			return fmt.Errorf("failed to name session: %w", err)
		}
		if active, ok := a.engine.Snapshot().ActiveSession(); ok {
			session = active
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Created %s", session.Name))+" "+idStyle.Render(session.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newName, "name", "", "Session name (default: Chat N)")
}
