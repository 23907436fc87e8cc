// Package responder provides the sources of automated replies: a local
// simulated responder and remote text-generation backends.
package responder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Client produces a single reply for a prompt.
type Client interface {
	// Generate returns the complete reply. Streaming backends drain their
	// stream before returning.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Settings configures a strategy. Fields a strategy does not use are ignored.
type Settings struct {
	APIKey       string
	APIBase      string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string

	// Simulated strategy.
	Delay   time.Duration
	Phrases []string
	Clock   clockwork.Clock
}

// Constructor builds a client from settings.
type Constructor func(s Settings) (Client, error)

// Registration describes a strategy.
type Registration struct {
	Remote       bool
	DefaultModel string
	EnvKeys      []string // checked in order when Settings.APIKey is empty
	EnvBase      string
	Constructor  Constructor
}

var (
	// ErrUnknownStrategy is returned by New for unregistered names.
	ErrUnknownStrategy = errors.New("unknown responder strategy")
	// ErrMissingAPIKey is returned when a remote strategy has no credentials.
	ErrMissingAPIKey = errors.New("missing api key")
)

var registry = map[string]Registration{}

// Register adds a strategy under name.
func Register(name string, reg Registration) {
	name = strings.TrimSpace(name)
	if name == "" || reg.Constructor == nil {
		return
	}
	registry[name] = reg
}

// Strategies returns registered strategy names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registration for name.
func Lookup(name string) (Registration, bool) {
	reg, ok := registry[strings.TrimSpace(name)]
	return reg, ok
}

// New builds the named strategy, filling credentials and model defaults
// from the environment and the registration.
func New(name string, s Settings) (Client, error) {
	reg, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownStrategy, name, strings.Join(Strategies(), ", "))
	}

	if s.APIKey == "" {
		for _, key := range reg.EnvKeys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				s.APIKey = v
				break
			}
		}
	}
	if s.APIBase == "" && reg.EnvBase != "" {
		s.APIBase = strings.TrimSpace(os.Getenv(reg.EnvBase))
	}
	if s.Model == "" {
		s.Model = reg.DefaultModel
	}
	if reg.Remote && s.APIKey == "" {
		return nil, fmt.Errorf("%w for %s (set it in config or %s)", ErrMissingAPIKey, name, strings.Join(reg.EnvKeys, "/"))
	}
	return reg.Constructor(s)
}
