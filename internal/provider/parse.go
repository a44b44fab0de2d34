package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Analysis is the JSON object a model is asked to return.
type Analysis struct {
	IsSpam    bool    `json:"is_spam"`
	SpamScore float64 `json:"spam_score"`
	Reason    string  `json:"reason"`
}

// ParseAnalysis extracts the verdict object from model output. Code fences are
// stripped and the first balanced {...} is decoded, so surrounding prose is
// tolerated. Scores are clamped to [0,100].
func ParseAnalysis(text string) (Analysis, error) {
	obj, ok := firstObject(stripFences(text))
	if !ok {
		return Analysis{}, fmt.Errorf("%w: no JSON object in response", ErrBadResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	score := asFloat(raw["spam_score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Analysis{}, fmt.Errorf("%w: spam_score is not a finite number", ErrBadResponse)
	}
	a := Analysis{
		IsSpam:    asBool(raw["is_spam"]),
		SpamScore: ClampScore(score),
	}
	if r, ok := raw["reason"].(string); ok {
		a.Reason = r
	}
	return a, nil
}

// ClampScore bounds v to [0,100]. NaN becomes 0.
func ClampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstObject returns the first brace-balanced object, ignoring braces that
// appear inside JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}
