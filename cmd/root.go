// Package cmd implements the papo command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linanwx/papo/config"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/logger"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "papo",
	Short: "Chat with an automated responder in your terminal",
	Long: `papo is a single-session terminal chat. Tell it who you are once,
then exchange short messages with a simulated or remote responder.

Nothing you type is stored; every run starts a fresh conversation.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.papo, or $PAPO_CONFIG_DIR)")
	addResponderFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	if configDirFlag != "" {
		config.SetConfigDir(configDirFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		// Keep logging usable so the failing command can still report.
		cfg = config.DefaultConfig()
	}
	dir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func identityStore() (*identity.FileStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return identity.NewFileStore(dir), nil
}
