package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 25 || c.MaxIdleConns != 25 {
		t.Fatalf("unexpected pool sizes: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %v", c.PingTimeout)
	}

	c = PostgresPoolConfig{MaxOpenConns: 4}.withDefaults()
	if c.MaxIdleConns != 4 {
		t.Fatalf("idle conns should follow max open, got %d", c.MaxIdleConns)
	}
}

func TestNullString(t *testing.T) {
	if NullString("").Valid {
		t.Fatalf("empty string should be NULL")
	}
	if ns := NullString("x"); !ns.Valid || ns.String != "x" {
		t.Fatalf("unexpected %+v", ns)
	}
}
