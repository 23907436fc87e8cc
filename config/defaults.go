package config

const (
	defaultStrategy       = "simulated"
	defaultMaxChars       = 75
	defaultTypingIdleMs   = 1000
	defaultCopyFeedbackMs = 2000
	defaultDelayMs        = 1000
	defaultMaxTokens      = 1024
	defaultTemperature    = 0.7
	defaultSystemPrompt   = "You are a friendly assistant in a terminal chat. Keep replies short."
)

// DefaultTopics are the suggested conversation starters.
var DefaultTopics = []string{
	"Tell me a fun fact",
	"What can you do?",
	"Give me a productivity tip",
	"Recommend a book",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			MaxChars:       defaultMaxChars,
			TypingIdleMs:   defaultTypingIdleMs,
			CopyFeedbackMs: defaultCopyFeedbackMs,
			Topics:         append([]string(nil), DefaultTopics...),
		},
		Responder: ResponderConfig{
			Strategy:     defaultStrategy,
			MaxTokens:    defaultMaxTokens,
			Temperature:  defaultTemperature,
			SystemPrompt: defaultSystemPrompt,
			Simulated: SimulatedConfig{
				DelayMs: defaultDelayMs,
			},
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		File:    "logs/papo.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Session.MaxChars <= 0 {
		c.Session.MaxChars = defaultMaxChars
	}
	if c.Session.TypingIdleMs <= 0 {
		c.Session.TypingIdleMs = defaultTypingIdleMs
	}
	if c.Session.CopyFeedbackMs <= 0 {
		c.Session.CopyFeedbackMs = defaultCopyFeedbackMs
	}
	if c.Session.Topics == nil {
		c.Session.Topics = append([]string(nil), DefaultTopics...)
	}

	if c.Responder.Strategy == "" {
		c.Responder.Strategy = defaultStrategy
	}
	if c.Responder.MaxTokens <= 0 {
		c.Responder.MaxTokens = defaultMaxTokens
	}
	if c.Responder.Temperature == 0 {
		c.Responder.Temperature = defaultTemperature
	}
	if c.Responder.SystemPrompt == "" {
		c.Responder.SystemPrompt = defaultSystemPrompt
	}
	if c.Responder.TimeoutSec < 0 {
		c.Responder.TimeoutSec = 0
	}
	if c.Responder.Simulated.DelayMs <= 0 {
		c.Responder.Simulated.DelayMs = defaultDelayMs
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}

	hasAny := c.Logging.Level != "" || c.Logging.File != "" || c.Logging.Stdout
	if c.Logging.Enabled == nil && hasAny {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.File = def.File
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
