package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linanwx/papo/config"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/internal/health"
	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/responder"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, identity and responder readiness",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "yaml", "Output format: yaml or json")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	configPath, _ := config.ConfigPath()

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	applyResponderOverrides(cfg)

	store := identity.NewFileStore(dir)
	_, idErr := store.Load()

	opts := health.Options{
		ConfigPath:   configPath,
		IdentityPath: store.Path(),
		LogPath:      logger.FilePath(cfg.BuildLoggerConfig(), dir),
		Strategy:     cfg.Responder.Strategy,
		Model:        cfg.Responder.Model,
		HasKey:       cfg.ResponderSettings().APIKey != "",
		ConfigErr:    cfgErr,
		IdentityOK:   idErr == nil,
	}
	if reg, ok := responder.Lookup(cfg.Responder.Strategy); ok {
		opts.Remote = reg.Remote
		opts.EnvKeys = reg.EnvKeys
		if opts.Model == "" {
			opts.Model = reg.DefaultModel
		}
	} else if cfgErr == nil {
		opts.ConfigErr = fmt.Errorf("%w: %q", responder.ErrUnknownStrategy, cfg.Responder.Strategy)
	}
	if idErr != nil && !errors.Is(idErr, identity.ErrNotFound) {
		logger.Warn("stored identity unreadable", "err", idErr)
	}

	snapshot := health.Collect(opts)

	var data []byte
	switch strings.ToLower(doctorFormat) {
	case "json":
		data, err = json.MarshalIndent(snapshot, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case "yaml", "":
		data, err = yaml.Marshal(snapshot)
	default:
		return fmt.Errorf("unknown format %q", doctorFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize health snapshot: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
