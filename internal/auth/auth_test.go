package auth

import (
	"context"
	"testing"
)

func TestRequire(t *testing.T) {
	if err := Require(Identity{UID: "u1"}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Require(Identity{}); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestParseStaticTokens(t *testing.T) {
	tokens, err := ParseStaticTokens("abc=u1, def=u2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tokens) != 2 || tokens["abc"].UID != "u1" || tokens["def"].UID != "u2" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}

	if _, err := ParseStaticTokens("justatoken"); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
	if tokens, err := ParseStaticTokens(""); err != nil || len(tokens) != 0 {
		t.Fatalf("empty input should be fine: %v %v", tokens, err)
	}
}

func TestStaticProviderAuthenticate(t *testing.T) {
	p := NewStaticProvider(map[string]Identity{"tok": {UID: "u1", Email: "u1@example.com"}})
	ctx := context.Background()

	id, err := p.Authenticate(ctx, "tok")
	if err != nil || id.UID != "u1" {
		t.Fatalf("expected u1, got %+v (%v)", id, err)
	}
	if _, err := p.Authenticate(ctx, "nope"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := p.Authenticate(ctx, ""); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
