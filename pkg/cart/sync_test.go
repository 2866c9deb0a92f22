package cart

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"solecart/pkg/domain"
)

func TestSyncDrainsAndClears(t *testing.T) {
	h := newHarness(t, "tok")
	ctx := context.Background()
	h.local.Add(ctx, domain.Product{ProductID: "p1", Price: 10}, 2, "M")
	h.local.Add(ctx, domain.Product{ProductID: "p2", Price: 20}, 1, "42")
	h.remote.items = domain.Lines{{ProductID: "p1", Size: "M", Quantity: 1, Price: 10}}

	res, err := h.svc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Pushed != 2 || len(res.Failed) != 0 {
		t.Fatalf("unexpected sync result: %+v", res)
	}
	if local := h.local.Read(ctx); len(local) != 0 {
		t.Fatalf("expected local cart cleared, got %+v", local)
	}

	fresh, err := h.remote.GetCart(ctx, "tok")
	if err != nil {
		t.Fatalf("remote read: %v", err)
	}
	if len(res.Items) != len(fresh) {
		t.Fatalf("sync result %+v differs from fresh remote read %+v", res.Items, fresh)
	}
	for i := range fresh {
		if res.Items[i].Key() != fresh[i].Key() || res.Items[i].Quantity != fresh[i].Quantity {
			t.Fatalf("sync result %+v differs from fresh remote read %+v", res.Items, fresh)
		}
	}
	if fresh[0].Quantity != 3 {
		t.Fatalf("expected server to merge guest quantity, got %+v", fresh)
	}
	if got := testutil.ToFloat64(h.metrics.SyncItems.WithLabelValues("pushed")); got != 2 {
		t.Fatalf("unexpected pushed metric: %v", got)
	}
}

func TestSyncEmptyGuestCartReturnsRemote(t *testing.T) {
	h := newHarness(t, "tok")
	h.remote.items = domain.Lines{{ProductID: "p9", Size: "M", Quantity: 1}}

	res, err := h.svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ProductID != "p9" {
		t.Fatalf("expected remote cart, got %+v", res.Items)
	}
	if h.remote.count("add") != 0 {
		t.Fatalf("expected no pushes for empty guest cart")
	}
}

func TestSyncWithoutSessionReturnsLocal(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	h.local.Add(ctx, domain.Product{ProductID: "p1"}, 1, "M")

	res, err := h.svc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(res.Items) != 1 || h.remote.total() != 0 {
		t.Fatalf("expected local cart and no remote calls, got %+v calls=%d", res.Items, h.remote.total())
	}
	if len(h.local.Read(ctx)) != 1 {
		t.Fatalf("local cart must be kept without a session")
	}
}

func TestSyncContinuesPastFailuresAndKeepsThemLocally(t *testing.T) {
	h := newHarness(t, "tok")
	ctx := context.Background()
	h.local.Add(ctx, domain.Product{ProductID: "p1"}, 1, "M")
	h.local.Add(ctx, domain.Product{ProductID: "bad"}, 4, "M")
	h.local.Add(ctx, domain.Product{ProductID: "p3"}, 2, "L")
	h.remote.failFor[domain.NewKey("bad", "M")] = errServer

	res, err := h.svc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if h.remote.count("add") != 3 {
		t.Fatalf("expected every row attempted, got %d", h.remote.count("add"))
	}
	if res.Pushed != 2 || len(res.Failed) != 1 || res.Failed[0].ProductID != "bad" {
		t.Fatalf("unexpected sync result: %+v", res)
	}
	local := h.local.Read(ctx)
	if len(local) != 1 || local[0].ProductID != "bad" || local[0].Quantity != 4 {
		t.Fatalf("expected failed row kept locally, got %+v", local)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected server cart with pushed rows, got %+v", res.Items)
	}
}

func TestSyncFinalReadFailureIsReturned(t *testing.T) {
	h := newHarness(t, "tok")
	ctx := context.Background()
	h.local.Add(ctx, domain.Product{ProductID: "p1"}, 1, "M")
	h.remote.fail["get"] = errServer

	res, err := h.svc.Sync(ctx)
	if err == nil {
		t.Fatalf("expected error when the server cart cannot be read")
	}
	if res.Pushed != 1 {
		t.Fatalf("expected push to be reported, got %+v", res)
	}
	if len(h.local.Read(ctx)) != 0 {
		t.Fatalf("pushed rows must not stay in the local cart")
	}
}
