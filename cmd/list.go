package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	listRemote bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	Long: `List the locally known chat sessions, most recently created last.

With --remote, message counts are fetched from the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.store.List()
		activeID := a.store.LastActive()

		var counts map[string]int
		if listRemote {
			remote, err := a.backend.ListRemoteSessions(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list backend sessions: %w", err)
			}
			counts = make(map[string]int, len(remote))
			for _, r := range remote {
				counts[r.SessionID] = r.MessageCount
			}
		}

		displaySessions(cmd.OutOrStdout(), sessions, activeID, counts, time.Now())
		return nil
	},
}

// displaySessions renders the session table. counts is nil when message
// counts were not requested.
func displaySessions(out io.Writer, sessions []internal.ChatSession, activeID string, counts map[string]int, now time.Time) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: Start one with `horizon-chat new` or `horizon-chat chat`"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	columns := []string{"", "ID", "Name", "Updated"}
	if counts != nil {
		columns = append(columns, "Messages")
	}
	for _, c := range columns {
		_, _ = fmt.Fprint(w, titleStyle.Render(c)+"\t")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, session := range sessions {
		marker := " "
		if session.ID == activeID {
			marker = activeStyle.Render("●")
		}

		name := session.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}

		row := []string{
			marker,
			idStyle.Render(shortID(session.ID)),
			name,
			dateStyle.Render(formatRelative(session.GetUpdatedAt(), now)),
		}
		if counts != nil {
			count, ok := counts[session.ID]
			if ok {
				row = append(row, countStyle.Render(strconv.Itoa(count)))
			} else {
				row = append(row, dateStyle.Render("—"))
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: Use an ID (or its first characters, e.g. ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(sessions[0].ID))+
		idStyle.Render(") with `horizon-chat use <id>`"))
}

func formatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listRemote, "remote", false, "Include message counts from the backend")
}
