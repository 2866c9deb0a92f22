package store

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when a backend is asked for a blank key.
var ErrEmptyKey = errors.New("store: empty key")

// KV is a string-keyed slot store. A missing key is reported through the
// bool result, never as an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is an optional capability for backends holding connections.
type Closer interface {
	Close() error
}
