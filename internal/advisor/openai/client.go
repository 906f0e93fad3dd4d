// Package openai adapts the advisor port onto any OpenAI-compatible
// chat-completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"registro/internal/advisor"

	goopenai "github.com/sashabaranov/go-openai"
)

type Client struct {
	api   *goopenai.Client
	model string
}

var _ advisor.Generator = (*Client)(nil)

// Options configure the remote endpoint. BaseURL is optional and lets the
// same adapter talk to compatible gateways (Gemini proxy, local runtimes).
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing advisor API key")
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if strings.TrimSpace(opts.BaseURL) != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
