// Package reasoning wraps the LLM providers used to adjudicate claims.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Provider completes a prompt into free text. Provider-specific response
// parsing stays behind this interface.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config represents a reasoning provider configuration
type Config struct {
	Provider  string // deepseek, openai, openrouter, gemini, ollama or any OpenAI-compatible name
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int // 0 means DefaultMaxTokens; reasoning models spend part of it thinking
}

// DefaultMaxTokens leaves room for reasoning models before the one-word answer.
const DefaultMaxTokens = 1024

type openAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

// NewProvider creates an OpenAI-compatible reasoning provider
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("reasoning provider %q: model not provided", cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(cfg.Provider)
	}
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &openAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		name:      cfg.Provider,
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "gemini":
		return "https://generativelanguage.googleapis.com/v1beta/openai"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return ""
	}
}

func (p *openAIProvider) Name() string { return p.name }

// Complete sends the prompt as a single user message. The caller owns the deadline.
func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned empty content", p.name)
	}

	slog.Debug("reasoning: completion received",
		"provider", p.name,
		"model", p.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
