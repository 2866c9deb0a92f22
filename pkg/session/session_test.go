package session

import (
	"context"
	"testing"

	"solecart/pkg/store"
)

func TestMemorySession(t *testing.T) {
	ctx := context.Background()
	s := NewMemory("")
	if Authenticated(ctx, s) {
		t.Fatalf("expected anonymous session")
	}
	s.Set(" tok ")
	if got := s.Token(ctx); got != "tok" {
		t.Fatalf("unexpected token: %q", got)
	}
	if !Authenticated(ctx, s) {
		t.Fatalf("expected authenticated session")
	}
	s.Clear()
	if Authenticated(ctx, s) {
		t.Fatalf("expected anonymous after clear")
	}
}

func TestStoredSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	s := NewStored(kv, nil)

	if Authenticated(ctx, s) {
		t.Fatalf("expected anonymous session on empty store")
	}
	if err := s.Set(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, DefaultTokenKey); !ok || v != "abc" {
		t.Fatalf("token not persisted: %q ok=%v", v, ok)
	}
	if got := NewStored(kv, nil).Token(ctx); got != "abc" {
		t.Fatalf("second session should see stored token, got %q", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if Authenticated(ctx, s) {
		t.Fatalf("expected anonymous after clear")
	}
}

func TestAuthenticatedNilSession(t *testing.T) {
	if Authenticated(context.Background(), nil) {
		t.Fatalf("nil session must be anonymous")
	}
}
