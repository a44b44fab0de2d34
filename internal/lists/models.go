package lists

import (
	"errors"
	"net/netip"
	"strings"
	"time"
)

// WhitelistEntry lets a sender bypass screening. Domain is derived and kept
// for reference only; lookups match the exact email.
type WhitelistEntry struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Domain    string    `json:"domain" db:"domain"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	AddedBy   string    `json:"added_by" db:"added_by"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BlocklistEntry rejects a sender by exact email or exact IP.
type BlocklistEntry struct {
	ID        int64     `json:"id" db:"id"`
	Type      BlockType `json:"type" db:"type"`
	Value     string    `json:"value" db:"value"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	AddedBy   string    `json:"added_by" db:"added_by"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BlockType string

const (
	BlockEmail BlockType = "email"
	BlockIP    BlockType = "ip"
)

var (
	ErrInvalidArgument = errors.New("lists: invalid argument")
	ErrNotFound        = errors.New("lists: not found")
)

// NormalizeEmail lower-cases and trims; it returns "" for values without a
// local part and domain.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email
}

// EmailDomain returns the part after the last '@'.
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

// NormalizeIP returns the canonical text form of ip, or "".
func NormalizeIP(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

func normalizeBlockValue(t BlockType, v string) (string, error) {
	var out string
	switch t {
	case BlockEmail:
		out = NormalizeEmail(v)
	case BlockIP:
		out = NormalizeIP(v)
	default:
		return "", ErrInvalidArgument
	}
	if out == "" {
		return "", ErrInvalidArgument
	}
	return out, nil
}
