package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"solecart/pkg/domain"
	kvstore "solecart/pkg/store"
)

// CartStore persists one cart document per account.
type CartStore interface {
	Load(ctx context.Context, userID string) (domain.Lines, error)
	Save(ctx context.Context, userID string, items domain.Lines) error
	Delete(ctx context.Context, userID string) error
}

const cartKeyPrefix = "cart:"

// KVCartStore keeps each cart as a JSON array under "cart:<userID>".
type KVCartStore struct {
	kv kvstore.KV
}

func NewKVCartStore(kv kvstore.KV) *KVCartStore {
	return &KVCartStore{kv: kv}
}

func (s *KVCartStore) Load(ctx context.Context, userID string) (domain.Lines, error) {
	raw, ok, err := s.kv.Get(ctx, cartKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return domain.Lines{}, nil
	}
	return decodeLines([]byte(raw))
}

func (s *KVCartStore) Save(ctx context.Context, userID string, items domain.Lines) error {
	if len(items) == 0 {
		return s.Delete(ctx, userID)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, cartKey(userID), string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *KVCartStore) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, cartKey(userID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func cartKey(userID string) string {
	return cartKeyPrefix + strings.TrimSpace(userID)
}

func decodeLines(data []byte) (domain.Lines, error) {
	if len(data) == 0 {
		return domain.Lines{}, nil
	}
	var items domain.Lines
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if items == nil {
		items = domain.Lines{}
	}
	return items, nil
}
