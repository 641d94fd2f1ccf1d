package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	chatHelp = `Commands:
  /new [name]     start a new session
  /use <id>       switch to another session
  /list           list sessions
  /rename <name>  rename the active session
  /history        print the active session's messages
  /quit           exit (Ctrl-D also works)
Ctrl-C stops the reply being generated.`
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat on the active session",
	Long: `Start a line-oriented chat. Each line is sent to the assistant and the
reply is streamed back. Lines starting with / are commands; type /help
to list them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		printer := newStreamPrinter(out)
		a, err := openApp(printer.onChange)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Init(context.Background()); err != nil {
			return err
		}
		stop := abortOnInterrupt(a.engine, func() {
			internal.LogInfo("Nothing to stop (type /quit to exit)")
		})
		defer stop()

		r := &repl{engine: a.engine, out: out, printer: printer, interactive: internal.IsInteractive()}
		r.banner()
		return r.run(cmd.InOrStdin())
	},
}

// repl drives an Engine from lines of input
type repl struct {
	engine      *internal.Engine
	out         io.Writer
	printer     *streamPrinter
	interactive bool
}

func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	r.prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		quit, err := r.handle(line)
		if err != nil {
			_, _ = fmt.Fprintln(r.out, errorStyle.Render("✗ "+err.Error()))
		}
		if quit {
			return nil
		}
		r.prompt()
	}
	_, _ = fmt.Fprintln(r.out)
	return scanner.Err()
}

// handle runs one input line and reports whether the REPL should exit
func (r *repl) handle(line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, r.send(line)
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	ctx := context.Background()

	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		_, _ = fmt.Fprintln(r.out, chatHelp)
	case "/new":
		session, err := r.engine.CreateSession()
		if err != nil {
			return false, err
		}
		if err := r.engine.RenameSession(session.ID, arg); err != nil {
			return false, err
		}
		r.banner()
	case "/use":
		if arg == "" {
			return false, errors.New("usage: /use <session-id>")
		}
		id, err := resolveSessionID(r.engine.Snapshot().Sessions, arg)
		if err != nil {
			return false, err
		}
		if err := r.engine.ActivateSession(ctx, id); err != nil {
			return false, err
		}
		r.banner()
		r.history(3)
	case "/list":
		snap := r.engine.Snapshot()
		displaySessions(r.out, snap.Sessions, snap.ActiveID, nil, time.Now())
	case "/rename":
		snap := r.engine.Snapshot()
		if snap.ActiveID == "" {
			return false, internal.ErrNoActiveSession
		}
		return false, r.engine.RenameSession(snap.ActiveID, arg)
	case "/history":
		r.history(0)
	default:
		return false, fmt.Errorf("unknown command %s (type /help)", command)
	}
	return false, nil
}

func (r *repl) send(text string) error {
	state, err := r.engine.Send(context.Background(), text)
	r.printer.finish()
	if err != nil {
		return err
	}
	if state == internal.StreamAborted {
		_, _ = fmt.Fprintln(r.out, dateStyle.Render("(stopped)"))
	}
	return nil
}

func (r *repl) banner() {
	snap := r.engine.Snapshot()
	session, ok := snap.ActiveSession()
	if !ok {
		_, _ = fmt.Fprintln(r.out, headerStyle.Render("💬 No active session, your first message starts one"))
		return
	}
	_, _ = fmt.Fprintln(r.out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", session.Name))+idStyle.Render(shortID(session.ID)))
	if snap.Error != "" {
		_, _ = fmt.Fprintln(r.out, warningStyle.Render("⚠ "+snap.Error))
	}
}

// history prints the last n confirmed messages, all of them when n is 0
func (r *repl) history(n int) {
	messages := r.engine.Snapshot().Transcript.Conversation()
	total := len(messages)
	if n > 0 && n < total {
		messages = messages[total-n:]
	}
	offset := total - len(messages)
	for i, msg := range messages {
		displayMessage(r.out, offset+i+1, msg, total)
	}
}

func (r *repl) prompt() {
	if !r.interactive {
		return
	}
	_, _ = fmt.Fprint(r.out, promptStyle.Render("you› "))
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
