package llm

import (
	"context"
	"fmt"
	"time"

	"mailmind/internal/config"

	"github.com/sashabaranov/go-openai"
)

// OpenAI generates answers via the OpenAI chat completions API
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewOpenAI creates an OpenAI-backed generator
func NewOpenAI(cfg *config.Config) (*OpenAI, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}

	model := cfg.LLMModel
	if model == "" {
		model = string(openai.GPT4oMini)
	}

	return &OpenAI{
		client:      openai.NewClient(cfg.OpenAIKey),
		model:       model,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: float32(cfg.LLMTemperature),
		timeout:     time.Duration(cfg.LLMTimeout) * time.Second,
	}, nil
}

// Generate sends the prompt as a single user turn and returns the completion
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful email assistant."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider name
func (o *OpenAI) Name() string {
	return "openai"
}
