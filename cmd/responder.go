package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/papo/config"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/responder"
	"github.com/linanwx/papo/session"
)

var (
	strategyFlag string
	modelFlag    string
	apiKeyFlag   string
	apiBaseFlag  string
)

func addResponderFlags(c *cobra.Command) {
	c.PersistentFlags().StringVar(&strategyFlag, "strategy", "", "Override responder strategy ("+strings.Join(responder.Strategies(), ", ")+")")
	c.PersistentFlags().StringVar(&modelFlag, "model", "", "Override model for remote strategies")
	c.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Override API key")
	c.PersistentFlags().StringVar(&apiBaseFlag, "api-base", "", "Override API base URL")
}

// applyResponderOverrides lets flags pick a different backend without
// editing config.yaml.
func applyResponderOverrides(cfg *config.Config) {
	if s := strings.TrimSpace(strategyFlag); s != "" {
		if s != cfg.Responder.Strategy {
			cfg.Responder.Model = ""
		}
		cfg.Responder.Strategy = s
	}
	if m := strings.TrimSpace(modelFlag); m != "" {
		cfg.Responder.Model = m
	}

	key, base := strings.TrimSpace(apiKeyFlag), strings.TrimSpace(apiBaseFlag)
	if key == "" && base == "" {
		return
	}
	p := cfg.Provider(cfg.Responder.Strategy)
	if p == nil {
		p = &config.ProviderConfig{}
	} else {
		cp := *p
		p = &cp
	}
	if key != "" {
		p.APIKey = key
	}
	if base != "" {
		p.APIBase = base
	}
	cfg.SetProvider(cfg.Responder.Strategy, p)
}

func buildClient(cfg *config.Config) (responder.Client, error) {
	client, err := responder.New(cfg.Responder.Strategy, cfg.ResponderSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to create responder: %w", err)
	}
	return client, nil
}

func sessionOptions(cfg *config.Config, id identity.Identity, client responder.Client) session.Options {
	return session.Options{
		Identity:     id,
		Client:       client,
		MaxChars:     cfg.Session.MaxChars,
		TypingIdle:   cfg.TypingIdle(),
		CopyFeedback: cfg.CopyFeedback(),
		Timeout:      cfg.Timeout(),
		FallbackText: cfg.Session.FallbackText,
		Greeting:     cfg.GreetingEnabled(),
		Markdown:     cfg.MarkdownEnabled(),
		Topics:       cfg.Session.Topics,
	}
}

func strategyLabel(cfg *config.Config) string {
	label := cfg.Responder.Strategy
	if reg, ok := responder.Lookup(label); ok && reg.Remote {
		model := cfg.Responder.Model
		if model == "" {
			model = reg.DefaultModel
		}
		label += " · " + model
	}
	return label
}
