// Package llm adapts language-model completion services to a single
// prompt-in, text-out interface.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by NewCompleter
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Completer sends a prompt to a completion service and returns the answer text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// ErrEmptyCompletion is returned when the service answers with no text
var ErrEmptyCompletion = errors.New("completion returned no text")

// UpstreamError wraps every failure of a completion call: transport errors,
// timeouts, non-success responses and empty results.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Config selects and configures a completion provider
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoints only
	Temperature float32
}

// NewCompleter builds the completer for cfg.Provider
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(cfg), nil
	case ProviderGemini:
		return NewGeminiCompleter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
