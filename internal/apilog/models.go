package apilog

import (
	"encoding/json"
	"errors"
	"time"
)

// Entry is one AI provider invocation. Entries are immutable; only retention
// cleanup removes them.
type Entry struct {
	ID       int64  `json:"id" db:"id"`
	Provider string `json:"provider" db:"provider"`
	Model    string `json:"model,omitempty" db:"model"`

	RequestData  json.RawMessage `json:"request_data" db:"request_data"`
	ResponseData json.RawMessage `json:"response_data,omitempty" db:"response_data"`

	TokensUsed   int `json:"tokens_used" db:"tokens_used"`
	InputTokens  int `json:"input_tokens" db:"input_tokens"`
	OutputTokens int `json:"output_tokens" db:"output_tokens"`

	// Cost is USD rounded to 6 decimals.
	Cost float64 `json:"cost" db:"cost"`
	// ResponseTime is wall-clock seconds.
	ResponseTime float64 `json:"response_time" db:"response_time"`

	Status       Status `json:"status" db:"status"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ProviderUsage aggregates calls per provider since a point in time.
type ProviderUsage struct {
	Provider        string  `json:"provider"`
	TotalCalls      int     `json:"total_calls"`
	TotalTokens     int     `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
	AvgResponseTime float64 `json:"avg_response_time"`
	SuccessCount    int     `json:"success_count"`
	ErrorCount      int     `json:"error_count"`
}

// SuccessRate is the percentage of successful calls, 0 when there were none.
func (u ProviderUsage) SuccessRate() float64 {
	if u.TotalCalls == 0 {
		return 0
	}
	return float64(u.SuccessCount) / float64(u.TotalCalls) * 100
}

var (
	ErrInvalidArgument = errors.New("apilog: invalid argument")
	ErrInvalidPeriod   = errors.New("apilog: invalid period")
)
