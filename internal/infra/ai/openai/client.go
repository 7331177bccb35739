package openai

import (
    "context"
    "fmt"
    "strings"

    "github.com/sashabaranov/go-openai"
)

const maxTokens = 4096

// Client adapts the OpenAI chat API to the single-turn ModelClient port.
type Client struct {
    *openai.Client
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Complete sends one prompt and returns the raw response text. No JSON
// response format is forced here: the orchestrator salvages the report
// object out of whatever comes back.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
    model := c.Model
    if model == "" {
        model = "o3-2025-04-16"
    }
    req := openai.ChatCompletionRequest{
        Model: model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleUser, Content: prompt},
        },
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }

    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return "", fmt.Errorf("chat completion returned no choices")
    }

    return resp.Choices[0].Message.Content, nil
}
