package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"solecart/pkg/domain"
	"solecart/services/cart/internal/store"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSizeUnavailable  = errors.New("size not available")
	ErrMissingProductID = errors.New("productId is required")
	ErrSizeRequired     = errors.New("size is required")
	ErrInvalidUser      = errors.New("user id is required")
)

// Config holds dependencies for the cart service core.
type Config struct {
	Carts    store.CartStore
	Products []domain.Product
	Logger   *slog.Logger
}

// App is the cart service core: a seeded catalog and per-account carts.
type App struct {
	carts   store.CartStore
	catalog *Catalog
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs the core. Carts must be set.
func New(cfg Config) (*App, error) {
	if cfg.Carts == nil {
		return nil, errors.New("cart store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		carts:   cfg.Carts,
		catalog: NewCatalog(cfg.Products),
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

func (a *App) Products() []domain.Product {
	return a.catalog.List()
}

func (a *App) Product(id string) (domain.Product, bool) {
	return a.catalog.Get(id)
}

// Cart returns the account's cart.
func (a *App) Cart(ctx context.Context, userID string) (domain.Lines, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	return a.carts.Load(ctx, userID)
}

// AddItem increments the row for (productId, size) by qty. When the catalog
// knows the product its name, price and image replace the client snapshot.
func (a *App) AddItem(ctx context.Context, userID string, item domain.LineItem, qty int) (domain.Lines, error) {
	key := item.Key()
	if key.ProductID == "" {
		return nil, ErrMissingProductID
	}
	if key.Size.Empty() {
		return nil, ErrSizeRequired
	}
	if product, ok := a.catalog.Get(key.ProductID); ok {
		if !product.OffersSize(key.Size) {
			return nil, fmt.Errorf("%w: %s", ErrSizeUnavailable, key.Size)
		}
		snap, _ := product.Snapshot(key.Size, qty)
		item.Name, item.Price, item.Image, item.AltNames = snap.Name, snap.Price, snap.Image, snap.AltNames
	} else if a.catalog.Len() > 0 {
		return nil, ErrProductNotFound
	}
	return a.mutate(ctx, userID, func(cur domain.Lines) domain.Lines {
		return cur.Add(item, qty)
	})
}

func (a *App) RemoveItem(ctx context.Context, userID, productID string, size domain.Size) (domain.Lines, error) {
	key := domain.NewKey(productID, size)
	return a.mutate(ctx, userID, func(cur domain.Lines) domain.Lines {
		return cur.Remove(key)
	})
}

// UpdateItem sets an absolute quantity; <= 0 removes the row and a missing
// row is left alone.
func (a *App) UpdateItem(ctx context.Context, userID, productID string, size domain.Size, quantity int) (domain.Lines, error) {
	key := domain.NewKey(productID, size)
	return a.mutate(ctx, userID, func(cur domain.Lines) domain.Lines {
		next, _ := cur.SetQuantity(key, quantity)
		return next
	})
}

func (a *App) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	unlock := a.lock(userID)
	defer unlock()
	return a.carts.Delete(ctx, userID)
}

func (a *App) mutate(ctx context.Context, userID string, fn func(domain.Lines) domain.Lines) (domain.Lines, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	unlock := a.lock(userID)
	defer unlock()

	cur, err := a.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := fn(cur)
	if err := a.carts.Save(ctx, userID, next); err != nil {
		return nil, err
	}
	a.logger.Debug("cart updated", "user_id", userID, "items", len(next))
	return next, nil
}

// lock serializes read-modify-write per account inside this process.
func (a *App) lock(userID string) func() {
	a.mu.Lock()
	m, ok := a.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		a.locks[userID] = m
	}
	a.mu.Unlock()
	m.Lock()
	return m.Unlock
}
