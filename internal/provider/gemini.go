package provider

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"form-shield/internal/pricing"
)

// NewGemini builds the Google Gemini provider.
func NewGemini(cfg Config, calls CallLogger) *LLM {
	var opts []option.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	return newLLM(NameGemini, pricing.Gemini(), pricing.DefaultGeminiModel, cfg,
		geminiBackend{opts: opts}, calls)
}

type geminiBackend struct {
	opts []option.ClientOption
}

func (b geminiBackend) complete(ctx context.Context, req completionRequest) (completion, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(req.APIKey)}, b.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return completion{}, fmt.Errorf("gemini: create client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: genai.Ptr(int32(req.MaxTokens)),
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return completion{}, fmt.Errorf("gemini: %w", err)
	}
	return geminiCompletion(resp)
}

// geminiCompletion concatenates the text parts of the first candidate.
func geminiCompletion(resp *genai.GenerateContentResponse) (completion, error) {
	var c completion
	if resp == nil {
		return c, ErrBadResponse
	}
	if u := resp.UsageMetadata; u != nil {
		c.InputTokens = int(u.PromptTokenCount)
		c.OutputTokens = int(u.CandidatesTokenCount)
		c.TotalTokens = int(u.TotalTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return c, fmt.Errorf("%w: empty response from gemini", ErrBadResponse)
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			c.Text += string(t)
		}
	}
	if c.Text == "" {
		return c, fmt.Errorf("%w: no text part", ErrBadResponse)
	}
	return c, nil
}
