package cart

import (
	"context"
	"net/http"
	"sync"

	"solecart/pkg/cartclient"
	"solecart/pkg/domain"
)

// fakeRemote is an in-memory server cart that counts calls and can be told
// to fail specific operations.
type fakeRemote struct {
	mu      sync.Mutex
	items   domain.Lines
	calls   map[string]int
	fail    map[string]error
	failFor map[domain.Key]error
	tokens  []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:   make(map[string]int),
		fail:    make(map[string]error),
		failFor: make(map[domain.Key]error),
	}
}

func (f *fakeRemote) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) record(op, token string) error {
	f.calls[op]++
	f.tokens = append(f.tokens, token)
	return f.fail[op]
}

func (f *fakeRemote) GetCart(_ context.Context, token string) ([]domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get", token); err != nil {
		return nil, err
	}
	return f.items.Clone(), nil
}

func (f *fakeRemote) AddItem(_ context.Context, token string, item cartclient.CartItem, quantity int) ([]domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add", token); err != nil {
		return nil, err
	}
	row := domain.LineItem{ProductID: item.ProductID, Name: item.Name, Image: item.Image, Price: item.Price, Size: item.Size}
	if err := f.failFor[row.Key()]; err != nil {
		return nil, err
	}
	f.items = f.items.Add(row, quantity)
	return f.items.Clone(), nil
}

func (f *fakeRemote) RemoveItem(_ context.Context, token, productID string, size domain.Size) ([]domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("remove", token); err != nil {
		return nil, err
	}
	f.items = f.items.Remove(domain.NewKey(productID, size))
	return f.items.Clone(), nil
}

func (f *fakeRemote) UpdateItem(_ context.Context, token, productID string, size domain.Size, quantity int) ([]domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update", token); err != nil {
		return nil, err
	}
	f.items, _ = f.items.SetQuantity(domain.NewKey(productID, size), quantity)
	return f.items.Clone(), nil
}

func (f *fakeRemote) ClearCart(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("clear", token); err != nil {
		return err
	}
	f.items = nil
	return nil
}

var (
	errUnauthorized = &cartclient.APIError{Status: http.StatusUnauthorized, Message: "unauthorized"}
	errForbidden    = &cartclient.APIError{Status: http.StatusForbidden, Message: "forbidden"}
	errServer       = &cartclient.APIError{Status: http.StatusBadGateway, Message: "bad gateway"}
)
