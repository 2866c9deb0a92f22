package cart

import (
	"context"
	"fmt"

	"solecart/pkg/domain"
)

// SyncResult describes one guest-to-server migration.
type SyncResult struct {
	// Items is the cart after the migration: the server cart, or the local
	// cart when there is no session.
	Items domain.Lines
	// Pushed counts rows the server accepted.
	Pushed int
	// Failed holds rows the server rejected. They stay in the local cart.
	Failed domain.Lines
}

// Sync moves the guest cart into the server cart after a login. Rows are
// pushed one by one; a failed row is logged and does not stop the rest. The
// local cart is then cleared, except for rows that failed to push, which are
// kept for the next sync.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	token, ok := s.token(ctx)
	if !ok {
		return SyncResult{Items: s.local.Read(ctx)}, nil
	}

	guest := s.local.Read(ctx)
	if len(guest) == 0 {
		items, err := s.remote.GetCart(ctx, token)
		if err != nil {
			return SyncResult{}, fmt.Errorf("read server cart: %w", err)
		}
		return SyncResult{Items: domain.Lines(items)}, nil
	}

	var result SyncResult
	for _, it := range guest {
		if _, err := s.remote.AddItem(ctx, token, toCartItem(it), it.Quantity); err != nil {
			kind := classify(err)
			s.metrics.remoteError("sync", kind)
			s.metrics.syncItem("failed")
			s.logger.Error("cart sync push failed",
				"product_id", it.ProductID, "size", it.Size, "quantity", it.Quantity,
				"kind", kind.String(), "err", err)
			result.Failed = append(result.Failed, it)
			continue
		}
		s.metrics.syncItem("pushed")
		result.Pushed++
	}

	s.local.Clear(ctx)
	if len(result.Failed) > 0 {
		s.local.Replace(ctx, result.Failed)
	}

	items, err := s.remote.GetCart(ctx, token)
	if err != nil {
		return result, fmt.Errorf("read server cart: %w", err)
	}
	result.Items = domain.Lines(items)
	s.logger.Info("guest cart synced", "pushed", result.Pushed, "failed", len(result.Failed))
	return result, nil
}
