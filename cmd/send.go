package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/papo/conversation"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/session"
)

var sendText string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one message and print the reply",
	Long: `Run a single turn without the terminal UI and print the transcript.
The exit status is non-zero when the responder fails.

Examples:
  papo send -m "Hello"
  papo send --strategy anthropic -m "Recommend a book"`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendText, "message", "m", "", "Message text (required)")
	_ = sendCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyResponderOverrides(cfg)

	store, err := identityStore()
	if err != nil {
		return err
	}
	id, err := store.Load()
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		return err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	sess, err := session.New(sessionOptions(cfg, id, client))
	if err != nil {
		return err
	}
	defer sess.Close()

	if kept := sess.Keystroke(sendText); kept != sendText {
		return fmt.Errorf("message exceeds %d characters", cfg.Session.MaxChars)
	}
	turn, err := sess.Submit()
	if errors.Is(err, session.ErrRejected) {
		return errors.New("message is empty")
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-turn.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	printTranscript(cmd.OutOrStdout(), sess.Snapshot())
	if err := turn.Err(); err != nil {
		return fmt.Errorf("responder failed: %w", err)
	}
	return nil
}

func printTranscript(w io.Writer, snap session.Snapshot) {
	for _, m := range snap.Messages {
		who := "papo"
		if m.Sender == conversation.SenderUser {
			who = snap.Identity.AvatarInitials()
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Format("15:04"), who, m.Content.PlainText())
	}
}

// commandContext falls back to Background for commands run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
