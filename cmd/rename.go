package cmd

import (
	"fmt"
	"strings"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

// renameCmd represents the rename command
var renameCmd = &cobra.Command{
	Use:   "rename <session-id> <name...>",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
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
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			internal.LogInfo("Empty name, session %s left unchanged", id)
			return nil
		}
		if err := a.engine.RenameSession(id, name); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Renamed to %s", name)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
