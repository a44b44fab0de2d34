package submission

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Proxy headers consulted in order; RemoteAddr is the last resort.
var ipHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"Client-IP",
}

// ClientIP resolves the originating client address of r. The first header
// value that parses as an IP wins; ports and IPv6 brackets are stripped and
// IPv4-mapped IPv6 is unmapped. Returns "" when nothing valid is found.
func ClientIP(r *http.Request) string {
	for _, h := range ipHeaders {
		if ip := NormalizeIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	return NormalizeIP(r.RemoteAddr)
}

// NormalizeIP parses a raw header or address value into canonical IP text.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	switch {
	case strings.HasPrefix(raw, "["):
		// [v6]:port or [v6]
		if end := strings.IndexByte(raw, ']'); end > 0 {
			raw = raw[1:end]
		}
	case strings.Count(raw, ":") == 1:
		// v4:port
		if host, _, err := net.SplitHostPort(raw); err == nil {
			raw = host
		}
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type clientIPKey struct{}

// WithClientIP attaches the resolved client IP to ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	v := ctx.Value(clientIPKey{})
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
