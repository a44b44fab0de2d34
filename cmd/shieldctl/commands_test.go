package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"form-shield/internal/auth"
	"form-shield/internal/credentials"
	"form-shield/internal/provider"
	"form-shield/internal/settings"
)

func TestHashPassword(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"hash-password", "s3cret"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if err := auth.VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

func TestSetCredential(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(settings.NewMemoryRepo(), settings.Defaults())
	cipher, err := credentials.NewCipher(bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	if err := setCredential(ctx, svc, cipher, provider.NameClaude, "sk-ant", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := setCredential(ctx, svc, cipher, "abn", "guid-1", false); err != nil {
		t.Fatalf("set abn: %v", err)
	}

	cur, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	p := cur.Providers[provider.NameClaude]
	if !p.Enabled {
		t.Fatalf("expected provider enabled")
	}
	if plain, _ := cipher.Resolve(p.APIKey); plain != "sk-ant" || p.APIKey == "sk-ant" {
		t.Fatalf("key not stored encrypted: %q", p.APIKey)
	}
	if plain, enc := cipher.Resolve(cur.ABNAPIKey); plain != "guid-1" || !enc {
		t.Fatalf("abn key not stored encrypted")
	}

	if err := setCredential(ctx, svc, cipher, "bogus", "x", false); !errors.Is(err, provider.ErrUnknownProvider) {
		t.Fatalf("expected unknown provider, got %v", err)
	}
}
