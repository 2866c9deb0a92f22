package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"solecart/internal/usertoken"
	"solecart/pkg/domain"
)

// fakeBackend is a minimal cart server keyed by bearer token.
type fakeBackend struct {
	mu    sync.Mutex
	carts map[string]domain.Lines
	adds  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{carts: map[string]domain.Lines{}}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.URL.Path == "/api/products/air-1":
		_ = json.NewEncoder(w).Encode(domain.Product{ProductID: "air-1", Name: "Air Runner", Price: 120})
		return
	case r.URL.Path == "/api/products":
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []domain.Product{{ProductID: "air-1", Name: "Air Runner", Price: 120, Sizes: []domain.Size{"41", "42"}}}, "count": 1})
		return
	case strings.HasPrefix(r.URL.Path, "/api/products/"):
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "good-token" {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}
	switch {
	case r.URL.Path == "/api/cart" && r.Method == http.MethodPost:
		var req struct {
			Item     domain.LineItem `json:"item"`
			Quantity int             `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.adds++
		b.carts[token] = b.carts[token].Add(req.Item, req.Quantity)
	case r.URL.Path == "/api/cart" && r.Method == http.MethodDelete:
		delete(b.carts, token)
	}
	items := b.carts[token]
	if items == nil {
		items = domain.Lines{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

type runner struct {
	t       *testing.T
	backend string
	data    string
	cfg     string
}

func newRunner(t *testing.T, backendURL string) *runner {
	t.Helper()
	for _, key := range []string{"CARTCTL_BACKEND_URL", "CARTCTL_LOG_LEVEL", "CARTCTL_STORAGE", "CARTCTL_DATA_FILE", "REDIS_ADDR", "REDIS_PASSWORD", "JWT_SECRET"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	return &runner{
		t:       t,
		backend: backendURL,
		data:    filepath.Join(dir, "cart.json"),
		cfg:     filepath.Join(dir, "absent.yaml"),
	}
}

func (r *runner) run(args ...string) (string, error) {
	r.t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	full := append([]string{"--config", r.cfg, "--backend", r.backend, "--data-file", r.data}, args...)
	root.SetArgs(full)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (r *runner) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	if err != nil {
		r.t.Fatalf("cartctl %v: %v", args, err)
	}
	return out
}

func (r *runner) listJSON() domain.Lines {
	r.t.Helper()
	var items domain.Lines
	if err := json.Unmarshal([]byte(r.mustRun("list", "--json")), &items); err != nil {
		r.t.Fatalf("decode list output: %v", err)
	}
	return items
}

func TestVersion(t *testing.T) {
	r := newRunner(t, "http://127.0.0.1:1")
	out := r.mustRun("version")
	if !strings.HasPrefix(out, "cartctl "+Version) {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestTokenIsAcceptedByVerifier(t *testing.T) {
	r := newRunner(t, "http://127.0.0.1:1")
	const secret = "cli-test-secret-0123456789"
	out := r.mustRun("token", "--sub", "alice", "--secret", secret)

	verifier, err := usertoken.NewVerifier(usertoken.Config{Secret: secret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	sub, err := verifier.VerifySubject(strings.TrimSpace(out))
	if err != nil || sub != "alice" {
		t.Fatalf("verify minted token: sub=%q err=%v", sub, err)
	}
	if _, err := r.run("token", "--sub", "alice"); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestGuestCartCommands(t *testing.T) {
	ts := httptest.NewServer(newFakeBackend())
	defer ts.Close()
	r := newRunner(t, ts.URL)

	r.mustRun("add", "air-1", "--size", "42", "--qty", "2")
	r.mustRun("add", "court-2", "--size", "40", "--name", "Court", "--price", "80")

	items := r.listJSON()
	if len(items) != 2 || items[0].Name != "Air Runner" || items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", items)
	}
	if out := r.mustRun("total"); strings.TrimSpace(out) != "320.00" {
		t.Fatalf("total = %q", out)
	}

	r.mustRun("set", "air-1", "42", "5")
	r.mustRun("remove", "court-2", "40")
	items = r.listJSON()
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("unexpected cart after set/remove: %+v", items)
	}

	if _, err := r.run("add", "air-1"); err == nil || !strings.Contains(err.Error(), "size is required") {
		t.Fatalf("expected size error, got %v", err)
	}
	if _, err := r.run("set", "air-1", "42", "many"); err == nil {
		t.Fatalf("expected invalid quantity error")
	}

	r.mustRun("clear")
	if out := r.mustRun("list"); !strings.Contains(out, "cart is empty") {
		t.Fatalf("expected empty cart, got %q", out)
	}
}

func TestLoginSyncsGuestCart(t *testing.T) {
	backend := newFakeBackend()
	ts := httptest.NewServer(backend)
	defer ts.Close()
	r := newRunner(t, ts.URL)

	r.mustRun("add", "air-1", "--size", "42", "--qty", "2")
	out := r.mustRun("login", "good-token")
	if !strings.Contains(out, "1 pushed, 0 kept locally") {
		t.Fatalf("unexpected login output: %q", out)
	}
	if backend.adds != 1 {
		t.Fatalf("server adds = %d, want 1", backend.adds)
	}
	items := r.listJSON()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected server cart, got %+v", items)
	}

	r.mustRun("logout")
	if items := r.listJSON(); len(items) != 0 {
		t.Fatalf("guest cart should be empty after sync, got %+v", items)
	}
}

func TestRejectedTokenSurfacesOnAdd(t *testing.T) {
	ts := httptest.NewServer(newFakeBackend())
	defer ts.Close()
	r := newRunner(t, ts.URL)

	if _, err := r.run("login", "bad-token"); err == nil {
		t.Fatalf("expected sync failure with rejected token")
	}
	_, err := r.run("add", "air-1", "--size", "42")
	if err == nil || !strings.Contains(err.Error(), "login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}

func TestProducts(t *testing.T) {
	ts := httptest.NewServer(newFakeBackend())
	defer ts.Close()
	r := newRunner(t, ts.URL)
	out := r.mustRun("products")
	if !strings.Contains(out, "air-1") || !strings.Contains(out, "41,42") {
		t.Fatalf("unexpected products output: %q", out)
	}
}
