// Package session holds the caller's access token. The cart façade reads it
// to decide between the local and the server cart; it never clears it.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"solecart/pkg/store"
)

// DefaultTokenKey is the slot used by Stored.
const DefaultTokenKey = "token"

// Session exposes the current bearer token. An empty token means anonymous.
type Session interface {
	Token(ctx context.Context) string
}

// Authenticated reports whether s currently carries a token.
func Authenticated(ctx context.Context, s Session) bool {
	if s == nil {
		return false
	}
	return strings.TrimSpace(s.Token(ctx)) != ""
}

// Memory is a process-local session.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory builds a session with an optional initial token.
func NewMemory(token string) *Memory {
	return &Memory{token: strings.TrimSpace(token)}
}

func (m *Memory) Token(context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Memory) Set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(token)
}

func (m *Memory) Clear() {
	m.Set("")
}

// Stored keeps the token in a KV slot so it survives restarts, the way a
// browser keeps it in local storage.
type Stored struct {
	kv     store.KV
	key    string
	logger *slog.Logger
}

// NewStored builds a KV-backed session using DefaultTokenKey.
func NewStored(kv store.KV, logger *slog.Logger) *Stored {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stored{kv: kv, key: DefaultTokenKey, logger: logger}
}

// Token returns the stored token. Read failures count as anonymous.
func (s *Stored) Token(ctx context.Context) string {
	val, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("session token read failed", "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}

func (s *Stored) Set(ctx context.Context, token string) error {
	return s.kv.Set(ctx, s.key, strings.TrimSpace(token))
}

func (s *Stored) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}
