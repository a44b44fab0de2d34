package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"form-shield/internal/pricing"
)

const (
	anthropicAPIVersion = "2023-06-01"
	anthropicMessages   = "https://api.anthropic.com/v1/messages"
)

// NewClaude builds the Anthropic provider. The Messages API is called over
// plain HTTP.
func NewClaude(cfg Config, calls CallLogger) *LLM {
	url := cfg.BaseURL
	if url == "" {
		url = anthropicMessages
	}
	return newLLM(NameClaude, pricing.Claude(), pricing.DefaultClaudeModel, cfg,
		claudeBackend{url: url, httpClient: &http.Client{}}, calls)
}

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type claudeBackend struct {
	url        string
	httpClient *http.Client
}

func (b claudeBackend) complete(ctx context.Context, req completionRequest) (completion, error) {
	payload := claudeRequest{
		Model:     req.Model,
		Messages:  []claudeMessage{{Role: "user", Content: req.Prompt}},
		System:    req.System,
		MaxTokens: req.MaxTokens,
	}
	if req.JSONMode {
		t := 0.3
		payload.Temperature = &t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return completion{}, fmt.Errorf("claude: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return completion{}, fmt.Errorf("claude: build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", req.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return completion{}, fmt.Errorf("claude: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return completion{}, fmt.Errorf("claude: read response: %w", err)
	}

	var out claudeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return completion{}, fmt.Errorf("claude: HTTP %d", resp.StatusCode)
		}
		return completion{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.Error != nil {
		return completion{}, fmt.Errorf("claude: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return completion{}, fmt.Errorf("claude: HTTP %d", resp.StatusCode)
	}

	c := completion{
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
		TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
	}
	for _, block := range out.Content {
		if block.Type == "text" {
			c.Text += block.Text
		}
	}
	if c.Text == "" {
		return c, ErrBadResponse
	}
	return c, nil
}
