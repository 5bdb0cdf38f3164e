package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 1024

type ClaudeModel struct {
	client *anthropic.Client
	model  string
}

func NewClaudeModel(apiKey, model, baseURL string) *ClaudeModel {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeModel{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (m *ClaudeModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(m.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: claudeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("empty response from anthropic")
}
