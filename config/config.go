// Package config handles configuration loading and saving.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/responder"
)

const (
	configFileName = "config.yaml"
	configDirName  = ".papo"
	configDirEnv   = "PAPO_CONFIG_DIR"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Session   SessionConfig   `json:"session" yaml:"session"`
	Responder ResponderConfig `json:"responder" yaml:"responder"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// SessionConfig contains composer and transcript settings.
type SessionConfig struct {
	MaxChars       int      `json:"maxChars,omitempty" yaml:"maxChars,omitempty"`             // defaults to 75
	TypingIdleMs   int      `json:"typingIdleMs,omitempty" yaml:"typingIdleMs,omitempty"`     // defaults to 1000
	CopyFeedbackMs int      `json:"copyFeedbackMs,omitempty" yaml:"copyFeedbackMs,omitempty"` // defaults to 2000
	FallbackText   string   `json:"fallbackText,omitempty" yaml:"fallbackText,omitempty"`
	Greeting       *bool    `json:"greeting,omitempty" yaml:"greeting,omitempty"` // seed a welcome message, defaults to true
	Topics         []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	RenderMarkdown *bool    `json:"renderMarkdown,omitempty" yaml:"renderMarkdown,omitempty"` // defaults to true
}

// ResponderConfig selects and tunes the reply strategy.
type ResponderConfig struct {
	Strategy     string          `json:"strategy" yaml:"strategy"` // simulated, gemini, openai, anthropic
	Model        string          `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens    int             `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature  float64         `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TimeoutSec   int             `json:"timeoutSec,omitempty" yaml:"timeoutSec,omitempty"` // 0 disables the bound
	SystemPrompt string          `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Simulated    SimulatedConfig `json:"simulated,omitempty" yaml:"simulated,omitempty"`
}

// SimulatedConfig tunes the local responder.
type SimulatedConfig struct {
	DelayMs int      `json:"delayMs,omitempty" yaml:"delayMs,omitempty"` // defaults to 1000
	Phrases []string `json:"phrases,omitempty" yaml:"phrases,omitempty"`
}

// ProvidersConfig contains remote API credentials.
type ProvidersConfig struct {
	Gemini    *ProviderConfig `json:"gemini,omitempty" yaml:"gemini,omitempty"`
	OpenAI    *ProviderConfig `json:"openai,omitempty" yaml:"openai,omitempty"`
	Anthropic *ProviderConfig `json:"anthropic,omitempty" yaml:"anthropic,omitempty"`
}

// ProviderConfig contains API credentials for a provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey"`
	APIBase string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"` // optional custom base URL
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stderr
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if dir := strings.TrimSpace(os.Getenv(configDirEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if _, ok := responder.Lookup(cfg.Responder.Strategy); !ok {
		return nil, fmt.Errorf("%w: %q in %s", responder.ErrUnknownStrategy, cfg.Responder.Strategy, path)
	}
	return cfg, nil
}

// Save writes the config file.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// BuildLoggerConfig converts the logging section.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := c.Logging.Enabled == nil || *c.Logging.Enabled
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}

// Provider returns the credentials for a strategy, or nil.
func (c *Config) Provider(strategy string) *ProviderConfig {
	switch strategy {
	case "gemini":
		return c.Providers.Gemini
	case "openai":
		return c.Providers.OpenAI
	case "anthropic":
		return c.Providers.Anthropic
	default:
		return nil
	}
}

// SetProvider stores credentials for a strategy. Unknown strategies are
// ignored.
func (c *Config) SetProvider(strategy string, p *ProviderConfig) {
	switch strategy {
	case "gemini":
		c.Providers.Gemini = p
	case "openai":
		c.Providers.OpenAI = p
	case "anthropic":
		c.Providers.Anthropic = p
	}
}

// ResponderSettings builds strategy settings from the responder and
// provider sections.
func (c *Config) ResponderSettings() responder.Settings {
	s := responder.Settings{
		Model:        c.Responder.Model,
		MaxTokens:    c.Responder.MaxTokens,
		Temperature:  c.Responder.Temperature,
		SystemPrompt: c.Responder.SystemPrompt,
		Delay:        time.Duration(c.Responder.Simulated.DelayMs) * time.Millisecond,
		Phrases:      c.Responder.Simulated.Phrases,
	}
	if p := c.Provider(c.Responder.Strategy); p != nil {
		s.APIKey = strings.TrimSpace(p.APIKey)
		s.APIBase = strings.TrimSpace(p.APIBase)
	}
	return s
}

// Timeout returns the responder call bound, zero when disabled.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Responder.TimeoutSec) * time.Second
}

// TypingIdle returns the composer debounce interval.
func (c *Config) TypingIdle() time.Duration {
	return time.Duration(c.Session.TypingIdleMs) * time.Millisecond
}

// CopyFeedback returns how long the copied marker stays visible.
func (c *Config) CopyFeedback() time.Duration {
	return time.Duration(c.Session.CopyFeedbackMs) * time.Millisecond
}

// GreetingEnabled reports whether sessions start with a welcome message.
func (c *Config) GreetingEnabled() bool {
	return c.Session.Greeting == nil || *c.Session.Greeting
}

// MarkdownEnabled reports whether replies are rendered from Markdown.
func (c *Config) MarkdownEnabled() bool {
	return c.Session.RenderMarkdown == nil || *c.Session.RenderMarkdown
}
