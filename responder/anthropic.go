package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linanwx/papo/logger"
)

const (
	anthropicDefaultModel     = "claude-3-5-haiku-latest"
	anthropicDefaultMaxTokens = 1024
)

func init() {
	Register("anthropic", Registration{
		Remote:       true,
		DefaultModel: anthropicDefaultModel,
		EnvKeys:      []string{"ANTHROPIC_API_KEY"},
		EnvBase:      "ANTHROPIC_API_BASE",
		Constructor: func(s Settings) (Client, error) {
			return NewAnthropic(s), nil
		},
	})
}

// Anthropic generates replies with the Messages streaming API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	system      string
}

// NewAnthropic creates an Anthropic responder.
func NewAnthropic(s Settings) *Anthropic {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(s.APIKey),
		anthropicoption.WithMaxRetries(sdkMaxRetries),
	}
	if base := strings.TrimSpace(s.APIBase); base != "" {
		opts = append(opts, anthropicoption.WithBaseURL(base))
	}
	model := s.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	maxTokens := int64(s.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return &Anthropic{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: s.Temperature,
		system:      strings.TrimSpace(s.SystemPrompt),
	}
}

// Generate sends prompt as a single user turn and concatenates the text
// deltas of the stream.
func (p *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	logger.Info(
		"anthropic request",
		"strategy", "anthropic",
		"model", p.model,
		"inputChars", len(prompt),
		"inputTokens", estimateTokens(prompt),
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.system}}
	}
	if p.temperature != 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var out strings.Builder
	var stopReason string
	events := 0
	for stream.Next() {
		events++
		switch ev := stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				out.WriteString(delta.Text)
			}
		case anthropic.MessageDeltaEvent:
			stopReason = string(ev.Delta.StopReason)
		}
	}
	if err := stream.Err(); err != nil {
		logger.Error("anthropic stream error", "strategy", "anthropic", "events", events, "err", err)
		return "", fmt.Errorf("anthropic stream: %w", err)
	}

	logger.Info(
		"anthropic response",
		"strategy", "anthropic",
		"model", p.model,
		"stopReason", stopReason,
		"events", events,
		"outputChars", out.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return out.String(), nil
}
