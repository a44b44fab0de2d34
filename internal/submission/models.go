package submission

import (
	"encoding/json"
	"errors"
	"time"
)

// Submission is one form post: field name to value. Values are strings in the
// common case but may be numbers, lists or nested maps; nothing here assumes a schema.
type Submission map[string]any

// Record is a persisted submission attempt.
//
// Invariants:
// - SpamScore is within [0,100].
// - Status is one of the persisted statuses (see ValidStatus).
// - Created once per attempt; afterwards only admin actions change Status.
type Record struct {
	ID       int64  `json:"id" db:"id"`
	FormType string `json:"form_type" db:"form_type"`
	FormID   string `json:"form_id,omitempty" db:"form_id"`

	Data Submission `json:"submission_data" db:"submission_data"`

	// ContentHash is the normalized hash used for duplicate counting.
	ContentHash string `json:"content_hash" db:"content_hash"`

	SpamScore        float64         `json:"spam_score" db:"spam_score"`
	ProviderUsed     string          `json:"provider_used,omitempty" db:"provider_used"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty" db:"provider_response"`

	Status Status `json:"status" db:"status"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusSpam      Status = "spam"
	StatusWhitelist Status = "whitelist"
)

// ValidStatus reports whether s may be stored.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusSpam, StatusWhitelist:
		return true
	default:
		return false
	}
}

// Filter narrows List and Count. Zero values mean "no constraint".
type Filter struct {
	Status   Status
	FormType string
	FormID   string
	DateFrom time.Time
	DateTo   time.Time
	Search   string

	OrderBy string
	Order   string
	Limit   int
	Offset  int
}

const defaultListLimit = 20

var orderColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"spam_score": true,
	"status":     true,
}

// normalized returns the filter with safe ordering and paging.
func (f Filter) normalized() Filter {
	out := f
	if !orderColumns[out.OrderBy] {
		out.OrderBy = "created_at"
	}
	if out.Order != "ASC" && out.Order != "asc" {
		out.Order = "DESC"
	} else {
		out.Order = "ASC"
	}
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// Stat is the slim projection used for analytics.
type Stat struct {
	FormType  string
	FormID    string
	Status    Status
	SpamScore float64
	CreatedAt time.Time
}

var (
	ErrNotFound        = errors.New("submission: not found")
	ErrInvalidArgument = errors.New("submission: invalid argument")
)
