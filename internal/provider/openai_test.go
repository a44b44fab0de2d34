package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-shield/internal/submission"
)

func TestOpenAI_AnalyzeAgainstFakeServer(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-5-nano-2025-08-07",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"is_spam\": true, \"spam_score\": 88, \"reason\": \"link farm\"}"}}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{APIKey: "sk-test", Enabled: true, BaseURL: srv.URL + "/v1"}, nil)
	res := p.Analyze(context.Background(), submission.Submission{"message": "cheap backlinks"})

	require.False(t, res.Failed(), res.Error)
	assert.True(t, res.IsSpam)
	assert.Equal(t, 88.0, res.SpamScore)
	assert.Equal(t, "link farm", res.Reason)
	assert.Equal(t, 120, res.TokensUsed)

	// gpt-5 models take max_completion_tokens and no temperature.
	assert.Equal(t, float64(150), got["max_completion_tokens"])
	assert.NotContains(t, got, "max_tokens")
	assert.NotContains(t, got, "temperature")
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
}

func TestOpenAI_APIErrorFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{APIKey: "sk-bad", Enabled: true, BaseURL: srv.URL + "/v1"}, nil)
	res := p.Analyze(context.Background(), submission.Submission{"message": "hello"})

	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "Incorrect API key")
	assert.Zero(t, res.SpamScore)
	assert.Error(t, p.TestConnection(context.Background()))
}
