package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter calls the Gemini generateContent API
type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiCompleter creates a Gemini client for cfg.APIKey
func NewGeminiCompleter(ctx context.Context, cfg Config) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiCompleter{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Provider returns the provider name
func (c *GeminiCompleter) Provider() string {
	return ProviderGemini
}

// Close releases the underlying client
func (c *GeminiCompleter) Close() error {
	return c.client.Close()
}

// Complete sends the prompt and concatenates the text parts of every candidate
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &UpstreamError{Provider: ProviderGemini, Err: err}
	}
	return responseText(resp)
}

// responseText extracts the answer from a response, rejecting blocked prompts
// and responses without text
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &UpstreamError{Provider: ProviderGemini, Err: ErrEmptyCompletion}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &UpstreamError{
			Provider: ProviderGemini,
			Err:      fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}

	text := candidateText(resp.Candidates)
	if strings.TrimSpace(text) == "" {
		return "", &UpstreamError{Provider: ProviderGemini, Err: ErrEmptyCompletion}
	}
	return text, nil
}

func candidateText(candidates []*genai.Candidate) string {
	var b strings.Builder
	for i, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			slog.Warn("gemini candidate finished early", "candidate", i, "finish_reason", candidate.FinishReason.String())
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
