package cart

import (
	"context"
	"log/slog"
	"strings"

	"solecart/pkg/cartclient"
	"solecart/pkg/domain"
	"solecart/pkg/session"
)

// Remote is the server cart. cartclient.Client implements it.
type Remote interface {
	GetCart(ctx context.Context, token string) ([]domain.LineItem, error)
	AddItem(ctx context.Context, token string, item cartclient.CartItem, quantity int) ([]domain.LineItem, error)
	RemoveItem(ctx context.Context, token, productID string, size domain.Size) ([]domain.LineItem, error)
	UpdateItem(ctx context.Context, token, productID string, size domain.Size, quantity int) ([]domain.LineItem, error)
	ClearCart(ctx context.Context, token string) error
}

// Config wires the façade.
type Config struct {
	Local   *LocalStore
	Remote  Remote
	Session session.Session
	Logger  *slog.Logger
	Metrics *Metrics
}

// Service is the single cart entry point. With a session token it works on
// the server cart and degrades to the local cart when the server fails;
// without one it only touches the local cart.
type Service struct {
	local   *LocalStore
	remote  Remote
	session session.Session
	logger  *slog.Logger
	metrics *Metrics
}

// NewService builds the façade.
func NewService(cfg Config) (*Service, error) {
	if cfg.Local == nil || cfg.Remote == nil || cfg.Session == nil {
		return nil, ErrNotConfigured
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		local:   cfg.Local,
		remote:  cfg.Remote,
		session: cfg.Session,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// Local exposes the guest cart.
func (s *Service) Local() *LocalStore {
	return s.local
}

// GetCart returns the effective cart. Server failures of any kind fall back
// to the local cart.
func (s *Service) GetCart(ctx context.Context) domain.Lines {
	token, ok := s.token(ctx)
	if !ok {
		return s.local.Read(ctx)
	}
	items, err := s.remote.GetCart(ctx, token)
	if err != nil {
		s.degrade(ctx, "get", err)
		return s.local.Read(ctx)
	}
	return domain.Lines(items)
}

// AddToCart adds qty of product in size. A missing size or product id is
// rejected before any storage or network access. When the server rejects the
// token the error is returned as is and the local cart is left untouched;
// other server failures fall back to the local cart.
func (s *Service) AddToCart(ctx context.Context, product domain.Product, qty int, size domain.Size) (domain.Lines, error) {
	if size.Empty() {
		return nil, ErrSizeRequired
	}
	item, ok := product.Snapshot(size, qty)
	if !ok {
		return nil, ErrMissingProductID
	}
	token, authed := s.token(ctx)
	if !authed {
		return s.local.Add(ctx, product, qty, size), nil
	}
	items, err := s.remote.AddItem(ctx, token, toCartItem(item), qty)
	if err == nil {
		return domain.Lines(items), nil
	}
	if classify(err) == failureAuth {
		s.metrics.remoteError("add", failureAuth)
		s.logger.Error("cart add rejected by server: token missing, invalid or expired",
			"product_id", item.ProductID, "size", item.Size, "err", err)
		return nil, err
	}
	s.degrade(ctx, "add", err)
	return s.local.Add(ctx, product, qty, size), nil
}

// RemoveFromCart drops the row for (productID, size).
func (s *Service) RemoveFromCart(ctx context.Context, productID string, size domain.Size) domain.Lines {
	token, ok := s.token(ctx)
	if !ok {
		return s.local.Remove(ctx, productID, size)
	}
	items, err := s.remote.RemoveItem(ctx, token, productID, size)
	if err != nil {
		s.degrade(ctx, "remove", err)
		return s.local.Remove(ctx, productID, size)
	}
	return domain.Lines(items)
}

// UpdateCartItem sets an absolute quantity; quantity <= 0 removes the row.
func (s *Service) UpdateCartItem(ctx context.Context, productID string, size domain.Size, quantity int) domain.Lines {
	token, ok := s.token(ctx)
	if !ok {
		return s.local.UpdateQuantity(ctx, productID, size, quantity)
	}
	items, err := s.remote.UpdateItem(ctx, token, productID, size, quantity)
	if err != nil {
		s.degrade(ctx, "update", err)
		return s.local.UpdateQuantity(ctx, productID, size, quantity)
	}
	return domain.Lines(items)
}

// GetTotal sums price * quantity over the effective cart.
func (s *Service) GetTotal(ctx context.Context) float64 {
	return s.GetCart(ctx).Total()
}

// ClearCart empties the local cart and, with a session, the server cart.
// Server failures are returned; there is nothing to fall back to.
func (s *Service) ClearCart(ctx context.Context) error {
	s.local.Clear(ctx)
	token, ok := s.token(ctx)
	if !ok {
		return nil
	}
	if err := s.remote.ClearCart(ctx, token); err != nil {
		s.metrics.remoteError("clear", classify(err))
		return err
	}
	return nil
}

func (s *Service) token(ctx context.Context) (string, bool) {
	token := strings.TrimSpace(s.session.Token(ctx))
	return token, token != ""
}

func (s *Service) degrade(ctx context.Context, op string, err error) {
	kind := classify(err)
	s.metrics.remoteError(op, kind)
	s.metrics.fallback(op)
	s.logger.WarnContext(ctx, "server cart failed, using local cart", "op", op, "kind", kind.String(), "err", err)
}

func toCartItem(item domain.LineItem) cartclient.CartItem {
	return cartclient.CartItem{
		ProductID: item.ProductID,
		Name:      item.Name,
		Image:     item.Image,
		Price:     item.Price,
		Size:      item.Size,
	}
}
