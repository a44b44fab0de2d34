package utils

import (
	"context"
	"testing"
	"time"
)

func TestTrailingWindowScriptInitialized(t *testing.T) {
	if trailingWindowScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestCountTrailing_ValidatesArguments(t *testing.T) {
	ctx := context.Background()
	if _, err := CountTrailing(ctx, nil, "k", "m", time.Now(), time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.PoolSize != 20 || c.DialTimeout != 3*time.Second || c.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
