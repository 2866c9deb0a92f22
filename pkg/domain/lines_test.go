package domain

import (
	"encoding/json"
	"testing"
)

func TestLinesAddAccumulatesSameKey(t *testing.T) {
	item := LineItem{ProductID: "p1", Size: "M", Price: 10}
	var cart Lines
	cart = cart.Add(item, 2)
	cart = cart.Add(item, 3)

	if len(cart) != 1 {
		t.Fatalf("expected one row, got %d", len(cart))
	}
	if cart[0].Quantity != 5 {
		t.Fatalf("unexpected quantity: %d", cart[0].Quantity)
	}
}

func TestLinesAddKeepsSizesApart(t *testing.T) {
	var cart Lines
	cart = cart.Add(LineItem{ProductID: "p1", Size: "41"}, 1)
	cart = cart.Add(LineItem{ProductID: "p1", Size: "42"}, 1)
	if len(cart) != 2 {
		t.Fatalf("expected two rows for two sizes, got %d", len(cart))
	}
}

func TestLinesAddRemovesWhenRunningSumDropsToZero(t *testing.T) {
	item := LineItem{ProductID: "p1", Size: "M"}
	cart := Lines{}.Add(item, 2).Add(item, -2)
	if len(cart) != 0 {
		t.Fatalf("expected row removed, got %+v", cart)
	}
	cart = Lines{}.Add(item, 1).Add(item, -5)
	if len(cart) != 0 {
		t.Fatalf("expected row removed on negative sum, got %+v", cart)
	}
}

func TestLinesAddIgnoresNonPositiveForNewRow(t *testing.T) {
	cart := Lines{}.Add(LineItem{ProductID: "p1", Size: "M"}, 0)
	if len(cart) != 0 {
		t.Fatalf("expected no row, got %+v", cart)
	}
	cart = cart.Add(LineItem{ProductID: "p1", Size: "M"}, -1)
	if len(cart) != 0 {
		t.Fatalf("expected no row, got %+v", cart)
	}
}

func TestLinesAddDoesNotMutateReceiver(t *testing.T) {
	base := Lines{{ProductID: "p1", Size: "M", Quantity: 1}}
	_ = base.Add(LineItem{ProductID: "p1", Size: "M"}, 4)
	if base[0].Quantity != 1 {
		t.Fatalf("receiver mutated: %+v", base)
	}
}

func TestLinesRemoveAbsentIsNoop(t *testing.T) {
	base := Lines{{ProductID: "p1", Size: "M", Quantity: 1}}
	next := base.Remove(NewKey("p2", "M"))
	if len(next) != 1 || next[0].ProductID != "p1" {
		t.Fatalf("unexpected cart after removing absent key: %+v", next)
	}
}

func TestLinesSetQuantity(t *testing.T) {
	base := Lines{{ProductID: "p1", Size: "M", Quantity: 1}}

	next, found := base.SetQuantity(NewKey("p1", "M"), 7)
	if !found || next[0].Quantity != 7 {
		t.Fatalf("expected absolute set, got found=%v %+v", found, next)
	}
	next, found = base.SetQuantity(NewKey("p1", "M"), 0)
	if !found || len(next) != 0 {
		t.Fatalf("expected removal on zero, got found=%v %+v", found, next)
	}
	next, found = base.SetQuantity(NewKey("missing", "M"), 3)
	if found || len(next) != 1 {
		t.Fatalf("expected no-op for missing row, got found=%v %+v", found, next)
	}
}

func TestLinesTotal(t *testing.T) {
	cart := Lines{
		{ProductID: "a", Size: "M", Price: 100, Quantity: 2},
		{ProductID: "b", Size: "M", Price: 50, Quantity: 1},
	}
	if got := cart.Total(); got != 250 {
		t.Fatalf("unexpected total: %v", got)
	}
	if got := cart.Count(); got != 3 {
		t.Fatalf("unexpected count: %d", got)
	}
}

func TestProductResolveIDPriority(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		want    string
		ok      bool
	}{
		{"productId wins", Product{ProductID: "pid", EntityID: "eid", ID: "id"}, "pid", true},
		{"entity id next", Product{EntityID: "eid", ID: "id"}, "eid", true},
		{"plain id last", Product{ID: "id"}, "id", true},
		{"blank ignored", Product{ProductID: "  ", ID: "id"}, "id", true},
		{"none", Product{Name: "shoe"}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.product.ResolveID()
			if got != tc.want || ok != tc.ok {
				t.Fatalf("got (%q,%v) want (%q,%v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestProductSnapshotPrefersGalleryImage(t *testing.T) {
	p := Product{ProductID: "p1", Name: "Runner", Image: "single.png", Images: []string{"first.png", "second.png"}, Price: 80}
	item, ok := p.Snapshot(" 42 ", 2)
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if item.Image != "first.png" || item.Size != "42" || item.Quantity != 2 || item.Price != 80 {
		t.Fatalf("unexpected snapshot: %+v", item)
	}
}

func TestProductDecodesNumericIdentifiers(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"_id": 1234, "name": "Court", "sizes": [41, "42"]}`), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	id, ok := p.ResolveID()
	if !ok || id != "1234" {
		t.Fatalf("unexpected id: %q %v", id, ok)
	}
	if len(p.Sizes) != 2 || p.Sizes[0] != "41" || p.Sizes[1] != "42" {
		t.Fatalf("unexpected sizes: %+v", p.Sizes)
	}
}

func TestLineItemNumericSizeMatchesStringSize(t *testing.T) {
	var it LineItem
	if err := json.Unmarshal([]byte(`{"productId":"p1","size":42,"quantity":1}`), &it); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if it.Key() != NewKey("p1", "42") {
		t.Fatalf("unexpected key: %+v", it.Key())
	}
}

func TestProductOffersSize(t *testing.T) {
	open := Product{ProductID: "p1"}
	if !open.OffersSize("99") {
		t.Fatalf("product without sizes should accept any size")
	}
	sized := Product{ProductID: "p1", Sizes: []Size{"41", " 42 "}}
	if !sized.OffersSize("42") || sized.OffersSize("43") {
		t.Fatalf("unexpected size matching for %+v", sized.Sizes)
	}
}
