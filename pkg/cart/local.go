package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"solecart/pkg/domain"
	"solecart/pkg/store"
)

// DefaultCartKey is the slot holding the guest cart.
const DefaultCartKey = "cart"

// LocalStore is the guest cart: one KV slot holding a JSON array of line
// items. Its methods never fail; storage errors are logged and the computed
// cart is returned anyway.
type LocalStore struct {
	kv     store.KV
	key    string
	logger *slog.Logger
}

// LocalOption customizes a LocalStore.
type LocalOption func(*LocalStore)

// WithCartKey overrides the slot name.
func WithCartKey(key string) LocalOption {
	return func(s *LocalStore) {
		if key = strings.TrimSpace(key); key != "" {
			s.key = key
		}
	}
}

// WithLocalLogger sets the logger.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(s *LocalStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLocalStore builds a guest cart over kv.
func NewLocalStore(kv store.KV, opts ...LocalOption) *LocalStore {
	s := &LocalStore{kv: kv, key: DefaultCartKey, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Read returns the persisted cart, initializing the slot to [] when absent.
func (s *LocalStore) Read(ctx context.Context) domain.Lines {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("local cart read failed", "key", s.key, "err", err)
		return domain.Lines{}
	}
	if !ok {
		s.write(ctx, domain.Lines{})
		return domain.Lines{}
	}
	var items domain.Lines
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Error("local cart decode failed", "key", s.key, "err", err)
		return domain.Lines{}
	}
	out := make(domain.Lines, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Add increments the row for (product, size) by qty. A product without an
// identifier or an empty size leaves the cart untouched.
func (s *LocalStore) Add(ctx context.Context, product domain.Product, qty int, size domain.Size) domain.Lines {
	item, ok := product.Snapshot(size, qty)
	if !ok {
		s.logger.Error("local cart add: missing product id", "name", product.Name)
		return s.Read(ctx)
	}
	if size.Empty() {
		s.logger.Error("local cart add: size is required", "product_id", item.ProductID)
		return s.Read(ctx)
	}
	cart := s.Read(ctx)
	if cart.Index(item.Key()) < 0 && qty <= 0 {
		return cart
	}
	next := cart.Add(item, qty)
	s.write(ctx, next)
	return next
}

// Remove drops the row for (productID, size).
func (s *LocalStore) Remove(ctx context.Context, productID string, size domain.Size) domain.Lines {
	next := s.Read(ctx).Remove(domain.NewKey(productID, size))
	s.write(ctx, next)
	return next
}

// UpdateQuantity sets an absolute quantity; quantity <= 0 removes the row.
// Unknown rows are left alone.
func (s *LocalStore) UpdateQuantity(ctx context.Context, productID string, size domain.Size, quantity int) domain.Lines {
	key := domain.NewKey(productID, size)
	cart := s.Read(ctx)
	if cart.Index(key) < 0 {
		return cart
	}
	if quantity <= 0 {
		return s.Remove(ctx, productID, size)
	}
	next, _ := cart.SetQuantity(key, quantity)
	s.write(ctx, next)
	return next
}

// Clear resets the slot to an empty cart.
func (s *LocalStore) Clear(ctx context.Context) {
	s.write(ctx, domain.Lines{})
}

// Replace overwrites the cart with items.
func (s *LocalStore) Replace(ctx context.Context, items domain.Lines) {
	if items == nil {
		items = domain.Lines{}
	}
	s.write(ctx, items)
}

func (s *LocalStore) write(ctx context.Context, items domain.Lines) {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("local cart encode failed", "key", s.key, "err", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("local cart write failed", "key", s.key, "err", err)
	}
}
