// Package llm provides the answer-generation capability behind the query
// engine. The provider is chosen once from configuration; callers only see
// the Generator interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"mailmind/internal/config"
)

// Generator produces a plain-text completion for a prompt. Implementations
// must honor context cancellation and apply their own request timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New selects a generator implementation from configuration
func New(cfg *config.Config) (Generator, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		return NewOpenAI(cfg)
	case "anthropic":
		return NewAnthropic(cfg)
	case "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q (expected openai, anthropic or ollama)", cfg.LLMProvider)
	}
}
