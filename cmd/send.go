package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	sendSession string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <message...>",
	Short: "Send one message and stream the reply",
	Long: `Send a message on the active session (or --session) and print the reply
as it streams. Press Ctrl-C to stop generation; the partial reply is kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("message is empty")
		}

		printer := newStreamPrinter(cmd.OutOrStdout())
		a, err := openApp(printer.onChange)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		if sendSession != "" {
			id, err := resolveSessionID(a.store.List(), sendSession)
			if err != nil {
				return err
			}
			if err := a.engine.ActivateSession(ctx, id); err != nil {
				return err
			}
		} else if err := a.engine.Init(ctx); err != nil {
			return err
		}

		stop := abortOnInterrupt(a.engine, nil)
		defer stop()

		state, err := a.engine.Send(ctx, text)
		printer.finish()
		if err != nil {
			return err
		}

		switch state {
		case internal.StreamAborted:
			internal.PrintWarning("Generation stopped, the partial reply is kept")
		case internal.StreamFailed:
			return errors.New(a.engine.Snapshot().Error)
		}
		return nil
	},
}

// streamPrinter writes the open assistant message's new text as tokens arrive
type streamPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	openID  string
	printed string
}

func newStreamPrinter(out io.Writer) *streamPrinter {
	return &streamPrinter{out: out}
}

func (p *streamPrinter) onChange(snap internal.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := snap.Transcript.OpenID
	if id == "" {
		return
	}
	i := snap.Transcript.Find(id)
	if i < 0 {
		return
	}
	if id != p.openID {
		p.openID = id
		p.printed = ""
	}

	text := snap.Transcript.Messages[i].Text
	if strings.HasPrefix(text, p.printed) {
		_, _ = fmt.Fprint(p.out, text[len(p.printed):])
	} else {
		// a failure replaced the streamed text
		_, _ = fmt.Fprint(p.out, "\n"+warningStyle.Render(text))
	}
	p.printed = text
}

// finish terminates the reply line, if one was started
func (p *streamPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openID != "" {
		_, _ = fmt.Fprintln(p.out)
	}
	p.openID = ""
	p.printed = ""
}

// abortOnInterrupt aborts the engine's stream on Ctrl-C until stop is called.
// onIdle, if set, runs when Ctrl-C arrives with nothing streaming.
func abortOnInterrupt(engine *internal.Engine, onIdle func()) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigs:
				if engine.Snapshot().Streaming {
					engine.Abort()
				} else if onIdle != nil {
					onIdle()
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "Session to send on (default: the active session)")
}
