package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/tui"
)

var showLogsFlag bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a chat session (default command)",
	Long: `Open the terminal chat. If no identity is stored yet you are asked
for your name and email first.

Keys:
  enter     send            tab      next suggested topic
  ctrl+t    send topic      ctrl+y   copy selected message
  ctrl+p/n  select message  ctrl+l   toggle logs
  esc       quit

Examples:
  papo
  papo chat --strategy gemini
  papo chat --strategy openai --api-base http://localhost:11434/v1 --model llama3`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.PersistentFlags().BoolVar(&showLogsFlag, "logs", false, "Show the log panel on start")
}

func runChat(cmd *cobra.Command, _ []string) error {
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
	if errors.Is(err, identity.ErrNotFound) {
		if id, err = askIdentity(identity.Identity{}); err != nil {
			return err
		}
		if err := store.Save(id); err != nil {
			return fmt.Errorf("failed to save identity: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("%w\nRun 'papo onboard' to set it again", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("chat starting", "strategy", cfg.Responder.Strategy, "model", cfg.Responder.Model)
	return tui.Run(ctx, tui.Options{
		Session:  sessionOptions(cfg, id, client),
		Label:    strategyLabel(cfg),
		ShowLogs: showLogsFlag,
	})
}
