package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	model  anthropic.Model
	client *anthropic.Client
}

// NewAnthropicClient creates an Anthropic-backed client.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5HaikuLatest
	}
	return &AnthropicClient{
		model:  m,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil anthropic client")
	}
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.Int(anthropicMaxTokens),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		b.WriteString(block.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
