package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/neura/fraudshield/internal/domain/scans"
	"github.com/neura/fraudshield/internal/infra/classifier/prompt"
)

const maxTokens = 1024

// Client is the LLM-backed classifier backend. It satisfies the same
// Classifier port as the HTTP backend and reports every failure as
// ErrClassifierUnavailable so the orchestrator's degrade policy applies
// uniformly.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Classify(ctx context.Context, scanReq domain.Request) (domain.Result, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(scanReq)},
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
		return domain.Result{}, fmt.Errorf("%w: chat completion: %v", domain.ErrClassifierUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Result{}, fmt.Errorf("%w: empty completion", domain.ErrClassifierUnavailable)
	}

	var result domain.Result
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return domain.Result{}, fmt.Errorf("%w: decode verdict: %v", domain.ErrClassifierUnavailable, err)
	}
	return result, nil
}
