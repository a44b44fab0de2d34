package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"form-shield/internal/submission"
)

var ErrInvalidPayload = errors.New("integrations: invalid payload")

// Payload is a framework webhook reduced to what the screener needs.
type Payload struct {
	FormID    string
	FormTitle string
	Fields    submission.Submission
}

// Adapter converts one form framework's webhook into a Payload.
//
// No screening happens here.
type Adapter interface {
	FormType() string
	Parse(r *http.Request) (Payload, error)
}

// maxBody caps webhook bodies read by adapters.
const maxBody = 1 << 20

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// empty reports whether a field value carries nothing worth screening.
func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// idString accepts ids sent as strings or JSON numbers.
func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.0f", x)
	default:
		return fmt.Sprint(x)
	}
}
