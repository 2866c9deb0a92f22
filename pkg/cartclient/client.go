package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"solecart/pkg/domain"
)

const defaultTimeout = 10 * time.Second

// Client calls the cart and catalog REST endpoints of the storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a backend error response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cart api: %d %s", e.Status, e.Message)
}

// IsAuthError reports whether err carries a 401 or 403 from the backend.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs a backend client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CartItem is the snapshot sent when adding to the server cart.
type CartItem struct {
	ProductID domain.ID   `json:"productId"`
	Name      string      `json:"name"`
	Image     string      `json:"image,omitempty"`
	Price     float64     `json:"price"`
	Size      domain.Size `json:"size"`
}

// GetCart returns the server cart.
func (c *Client) GetCart(ctx context.Context, token string) ([]domain.LineItem, error) {
	var resp cartResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/cart", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.items(), nil
}

// AddItem increments the server row for (item.ProductID, item.Size).
func (c *Client) AddItem(ctx context.Context, token string, item CartItem, quantity int) ([]domain.LineItem, error) {
	if strings.TrimSpace(string(item.ProductID)) == "" {
		return nil, errors.New("cart api: missing product id")
	}
	if item.Size.Empty() {
		return nil, errors.New("cart api: size is required")
	}
	payload := addRequest{Item: item, Quantity: quantity}
	var resp cartResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/cart", token, payload, &resp); err != nil {
		return nil, err
	}
	return resp.items(), nil
}

// RemoveItem deletes the server row for (productID, size).
func (c *Client) RemoveItem(ctx context.Context, token, productID string, size domain.Size) ([]domain.LineItem, error) {
	var resp cartResponse
	if err := c.doJSON(ctx, http.MethodDelete, itemPath(productID, size), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.items(), nil
}

// UpdateItem sets an absolute quantity on the server row.
func (c *Client) UpdateItem(ctx context.Context, token, productID string, size domain.Size, quantity int) ([]domain.LineItem, error) {
	payload := updateRequest{Quantity: quantity}
	var resp cartResponse
	if err := c.doJSON(ctx, http.MethodPut, itemPath(productID, size), token, payload, &resp); err != nil {
		return nil, err
	}
	return resp.items(), nil
}

// ClearCart empties the server cart. The response body is ignored.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/cart", token, nil, nil)
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp listProductsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetProduct returns one catalog entry.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	path := "/api/products/" + url.PathEscape(strings.TrimSpace(id))
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func itemPath(productID string, size domain.Size) string {
	return fmt.Sprintf("/api/cart/%s/%s",
		url.PathEscape(strings.TrimSpace(productID)),
		url.PathEscape(strings.TrimSpace(size.String())),
	)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type addRequest struct {
	Item     CartItem `json:"item"`
	Quantity int      `json:"quantity"`
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Items []domain.LineItem `json:"items"`
}

func (r cartResponse) items() []domain.LineItem {
	if r.Items == nil {
		return []domain.LineItem{}
	}
	return r.Items
}

type listProductsResponse struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}
