package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"form-shield/internal/pricing"
)

// NewOpenAI builds the OpenAI provider.
func NewOpenAI(cfg Config, calls CallLogger) *LLM {
	return newLLM(NameOpenAI, pricing.OpenAI(), pricing.DefaultOpenAIModel, cfg,
		openAIBackend{baseURL: cfg.BaseURL}, calls)
}

type openAIBackend struct {
	baseURL string
}

func (b openAIBackend) complete(ctx context.Context, req completionRequest) (completion, error) {
	conf := openai.DefaultConfig(req.APIKey)
	if b.baseURL != "" {
		conf.BaseURL = b.baseURL
	}
	client := openai.NewClientWithConfig(conf)

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// gpt-5 models reject max_tokens and any non-default temperature.
	if strings.HasPrefix(req.Model, "gpt-5") {
		chatReq.MaxCompletionTokens = req.MaxTokens
	} else {
		chatReq.MaxTokens = req.MaxTokens
		chatReq.Temperature = 0.3
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return completion{}, fmt.Errorf("openai: %w", err)
	}
	out := completion{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("%w: no choices", ErrBadResponse)
	}
	out.Text = resp.Choices[0].Message.Content
	return out, nil
}
