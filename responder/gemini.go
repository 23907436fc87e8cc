package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/linanwx/papo/logger"
)

const geminiDefaultModel = "gemini-1.5-flash"

func init() {
	Register("gemini", Registration{
		Remote:       true,
		DefaultModel: geminiDefaultModel,
		EnvKeys:      []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
		Constructor: func(s Settings) (Client, error) {
			return NewGemini(context.Background(), s)
		},
	})
}

// Gemini generates replies with the Gemini API, draining the streamed
// response into one string.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini responder.
func NewGemini(ctx context.Context, s Settings) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.APIBase != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.APIBase}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := s.Model
	if model == "" {
		model = geminiDefaultModel
	}
	return &Gemini{client: client, model: model, config: geminiConfig(s)}, nil
}

func geminiConfig(s Settings) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: []*genai.SafetySetting{
			{
				Category:  genai.HarmCategoryHarassment,
				Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
			},
		},
	}
	if s.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(s.Temperature))
	}
	if s.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxTokens)
	}
	if strings.TrimSpace(s.SystemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s.SystemPrompt, genai.RoleUser)
	}
	return cfg
}

// Generate sends prompt as a single user turn.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	logger.Info(
		"gemini request",
		"strategy", "gemini",
		"model", g.model,
		"inputChars", len(prompt),
		"inputTokens", estimateTokens(prompt),
	)

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var out strings.Builder
	chunks := 0
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.config) {
		if err != nil {
			logger.Error("gemini stream error", "strategy", "gemini", "chunks", chunks, "err", err)
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		chunks++
		out.WriteString(resp.Text())
	}

	logger.Info(
		"gemini response",
		"strategy", "gemini",
		"model", g.model,
		"chunks", chunks,
		"outputChars", out.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return out.String(), nil
}
