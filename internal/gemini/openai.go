package gemini

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harutofu/shiori/internal/compose"
)

// OpenAI is a Backend over any OpenAI-compatible chat completion endpoint,
// for self-hosted gateways that front local models.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds a backend against baseURL. An empty baseURL targets the
// public OpenAI API.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Generate(ctx context.Context, model string, turns []compose.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		switch t.Role {
		case compose.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case compose.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case 404:
				return "", &APIError{Status: 404, Body: apiErr.Message, Err: ErrNotFound}
			case 429:
				return "", &APIError{Status: 429, Body: apiErr.Message, Err: ErrRateLimited}
			}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
