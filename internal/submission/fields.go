package submission

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var emailScan = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

// Keys excluded from the duplicate-detection hash; they change on every post.
var volatileKeys = map[string]bool{
	"_wpnonce":             true,
	"form_nonce":           true,
	"timestamp":            true,
	"captcha":              true,
	"g-recaptcha-response": true,
}

// Keys returns the field names in sorted order.
func (s Submission) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the flattened string value of a field, or "".
func (s Submission) Get(key string) string {
	v, ok := s[key]
	if !ok {
		return ""
	}
	return ValueString(v)
}

// Has reports whether the field is present at all (even if empty).
func (s Submission) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// ValueString flattens a field value: lists are joined with ", ", maps become JSON.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, ValueString(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any, Submission:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Text joins every field value with newlines, for content heuristics.
func (s Submission) Text() string {
	var b strings.Builder
	for _, k := range s.Keys() {
		v := ValueString(s[k])
		if v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(v)
	}
	return b.String()
}

// ExtractEmail finds the submitter's address: first a valid address under a key
// mentioning "email", then any field whose whole value is an address, then the
// first address-shaped substring. Returns "" when nothing is found.
func ExtractEmail(s Submission) string {
	keys := s.Keys()
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !strings.Contains(lk, "email") && !strings.Contains(lk, "e-mail") {
			continue
		}
		if e, ok := validEmail(ValueString(s[k])); ok {
			return e
		}
	}
	for _, k := range keys {
		if str, ok := s[k].(string); ok {
			if e, ok := validEmail(str); ok {
				return e
			}
		}
	}
	for _, k := range keys {
		if m := emailScan.FindString(ValueString(s[k])); m != "" {
			return strings.ToLower(m)
		}
	}
	return ""
}

func validEmail(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || !strings.Contains(v, "@") {
		return "", false
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", false
	}
	if !emailScan.MatchString(v) {
		return "", false
	}
	return strings.ToLower(v), true
}

// ContentHash is the md5 of the submission's canonical JSON. encoding/json
// sorts map keys at every level, so field order never changes the hash.
func ContentHash(s Submission) string {
	b, err := json.Marshal(map[string]any(s))
	if err != nil {
		b = []byte(fmt.Sprint(map[string]any(s)))
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// NormalizedHash hashes a case and whitespace-insensitive copy of the
// submission without volatile keys. Two posts with the same normalized hash
// are considered the same content for duplicate detection.
func NormalizedHash(s Submission) string {
	norm := make(map[string]any, len(s))
	for k, v := range s {
		if volatileKeys[strings.ToLower(k)] {
			continue
		}
		norm[strings.ToLower(strings.TrimSpace(k))] = normalizeValue(v)
	}
	return ContentHash(norm)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return strings.Join(strings.Fields(strings.ToLower(t)), " ")
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	default:
		return t
	}
}
