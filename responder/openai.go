package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/linanwx/papo/logger"
)

const (
	openAIDefaultModel = "gpt-4o-mini"
	sdkMaxRetries      = 2
)

func init() {
	Register("openai", Registration{
		Remote:       true,
		DefaultModel: openAIDefaultModel,
		EnvKeys:      []string{"OPENAI_API_KEY"},
		EnvBase:      "OPENAI_API_BASE",
		Constructor: func(s Settings) (Client, error) {
			return NewOpenAI(s), nil
		},
	})
}

// OpenAI generates replies with the Chat Completions streaming API of
// OpenAI or any compatible endpoint.
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	system      string
}

// NewOpenAI creates an OpenAI responder.
func NewOpenAI(s Settings) *OpenAI {
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(s.APIKey),
		oaioption.WithMaxRetries(sdkMaxRetries),
	}
	if base := strings.TrimRight(strings.TrimSpace(s.APIBase), "/"); base != "" {
		opts = append(opts, oaioption.WithBaseURL(base+"/"))
	}
	model := s.Model
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
		system:      strings.TrimSpace(s.SystemPrompt),
	}
}

// Generate sends prompt as a single user turn and accumulates the streamed
// deltas.
func (p *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	logger.Info(
		"openai request",
		"strategy", "openai",
		"model", p.model,
		"inputChars", len(prompt),
		"inputTokens", estimateTokens(prompt),
	)

	var messages []openai.ChatCompletionMessageParamUnion
	if p.system != "" {
		messages = append(messages, openai.SystemMessage(p.system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if p.maxTokens > 0 {
		req.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if p.temperature != 0 {
		req.Temperature = openai.Float(p.temperature)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, req)
	defer stream.Close()

	var out strings.Builder
	var finishReason string
	chunks := 0
	for stream.Next() {
		chunk := stream.Current()
		chunks++
		if len(chunk.Choices) == 0 {
			continue
		}
		out.WriteString(chunk.Choices[0].Delta.Content)
		if fr := string(chunk.Choices[0].FinishReason); fr != "" {
			finishReason = fr
		}
	}
	if err := stream.Err(); err != nil {
		logger.Error("openai stream error", "strategy", "openai", "chunks", chunks, "err", err)
		return "", fmt.Errorf("openai stream: %w", err)
	}

	logger.Info(
		"openai response",
		"strategy", "openai",
		"model", p.model,
		"finishReason", finishReason,
		"chunks", chunks,
		"outputChars", out.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return out.String(), nil
}
