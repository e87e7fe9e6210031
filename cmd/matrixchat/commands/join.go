package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"matrixchat/internal/domain"
	"matrixchat/internal/participant"
	"matrixchat/internal/relay"
)

func joinCmd() *cobra.Command {
	var relayAddr, name string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a relay and chat on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				profile domain.Profile
				err     error
			)
			if relayAddr != "" {
				profile, _, err = appCtx.Profiles.ProfileFor(relayAddr)
			} else {
				profile, _, err = appCtx.Profiles.LoadProfile()
			}
			if err != nil {
				return err
			}
			relayAddr = firstNonEmpty(relayAddr, profile.Relay, appCtx.Config.Participant.Relay)
			name = firstNonEmpty(name, string(profile.Username), appCtx.Config.Participant.Name)

			in := bufio.NewScanner(os.Stdin)
			interactive := term.IsTerminal(int(os.Stdin.Fd()))

			client, err := appCtx.Dial(ctx, relayAddr)
			if err != nil {
				return err
			}
			username, err := register(ctx, client, in, interactive, name)
			if err != nil {
				_ = client.Close()
				return err
			}
			if err := appCtx.Profiles.SaveProfile(domain.Profile{Relay: relayAddr, Username: username}); err != nil {
				appCtx.Log.Warn("could not save profile", zap.Error(err))
			}

			p := appCtx.NewParticipant(client, username)
			return chat(ctx, p, in)
		},
	}
	cmd.Flags().StringVar(&relayAddr, "relay", "", "relay address host:port (default from profile)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default from profile)")
	return cmd
}

// register offers names until the relay accepts one. Without a terminal
// only the given name is tried.
func register(ctx context.Context, c *relay.Client, in *bufio.Scanner, interactive bool, name string) (domain.Username, error) {
	for {
		if name == "" {
			if !interactive {
				return "", errors.New("no name given (--name)")
			}
			fmt.Print("name: ")
			if !in.Scan() {
				return "", io.ErrUnexpectedEOF
			}
			name = strings.TrimSpace(in.Text())
			continue
		}
		err := c.Register(ctx, domain.Username(name))
		if err == nil {
			return domain.Username(name), nil
		}
		if !errors.Is(err, participant.ErrNameTaken) || !interactive {
			return "", err
		}
		fmt.Printf("%q is taken, pick another\n", name)
		name = ""
	}
}

func chat(ctx context.Context, p *participant.Participant, in *bufio.Scanner) error {
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			lines <- in.Text()
		}
	}()

	events := p.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			printEvent(ev)
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				return leave(p, runDone)
			}
			if line == "" {
				continue
			}
			switch err := p.Send(line); {
			case errors.Is(err, participant.ErrNotKeyed):
				fmt.Println("* waiting for key agreement, message not sent")
			case errors.Is(err, participant.ErrClosed):
				return <-runDone
			case err != nil:
				return err
			}
		case err := <-runDone:
			if events != nil {
				for ev := range events {
					printEvent(ev)
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func leave(p *participant.Participant, runDone <-chan error) error {
	if err := p.Close(); err != nil {
		appCtx.Log.Debug("close chat connection", zap.Error(err))
	}
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
	}
	return nil
}

func printEvent(ev participant.Event) {
	writeEvent(os.Stdout, ev)
}

// writeEvent prints one event. Message text is printed as decrypted,
// block padding included.
func writeEvent(w io.Writer, ev participant.Event) {
	switch ev.Kind {
	case participant.EventMessage:
		fmt.Fprintln(w, ev.Text)
	case participant.EventKeyed:
		fmt.Fprintf(w, "* key agreed, fingerprint %s\n", ev.Fingerprint)
	case participant.EventKeyFailed:
		fmt.Fprintf(w, "* key agreement failed: %v\n", ev.Err)
	case participant.EventClosed:
		fmt.Fprintln(w, "* relay closed the chat")
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
