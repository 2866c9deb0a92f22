package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solecart/internal/util"
	"solecart/pkg/domain"
	"solecart/services/cart/internal/app"
)

type cartItemBody struct {
	ProductID domain.ID   `json:"productId" validate:"required"`
	Name      string      `json:"name" validate:"max=200"`
	Image     string      `json:"image" validate:"max=2048"`
	Price     float64     `json:"price" validate:"gte=0"`
	Size      domain.Size `json:"size" validate:"required,max=32"`
}

type addCartItemRequest struct {
	Item     cartItemBody `json:"item"`
	Quantity int          `json:"quantity" validate:"ne=0,min=-1000,max=1000"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=-1000,max=1000"`
}

type cartResponse struct {
	Items domain.Lines `json:"items"`
	Count int          `json:"count"`
	Total float64      `json:"total"`
}

func newCartResponse(items domain.Lines) cartResponse {
	if items == nil {
		items = domain.Lines{}
	}
	return cartResponse{Items: items, Count: items.Count(), Total: items.Total()}
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.Cart(r.Context(), userID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(items))
	case http.MethodPost:
		if !s.allowRate(w, r, userID) {
			return
		}
		var req addCartItemRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}
		item := domain.LineItem{
			ProductID: req.Item.ProductID,
			Name:      req.Item.Name,
			Image:     req.Item.Image,
			Price:     req.Item.Price,
			Size:      req.Item.Size,
		}
		items, err := s.app.AddItem(r.Context(), userID, item, req.Quantity)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(items))
	case http.MethodDelete:
		if !s.allowRate(w, r, userID) {
			return
		}
		if err := s.app.Clear(r.Context(), userID); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(nil))
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) handleCartItem(w http.ResponseWriter, r *http.Request, userID string) {
	productID, size, ok := cartItemPath(r)
	if !ok {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodDelete:
		if !s.allowRate(w, r, userID) {
			return
		}
		items, err := s.app.RemoveItem(r.Context(), userID, productID, size)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(items))
	case http.MethodPut:
		if !s.allowRate(w, r, userID) {
			return
		}
		var req updateCartItemRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}
		items, err := s.app.UpdateItem(r.Context(), userID, productID, size, *req.Quantity)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(items))
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

// cartItemPath splits /api/cart/{productId}/{size}. Segments are unescaped
// individually so an escaped "/" stays inside its segment.
func cartItemPath(r *http.Request) (string, domain.Size, bool) {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), "/api/cart/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	productID, err := url.PathUnescape(parts[0])
	if err != nil {
		return "", "", false
	}
	size, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	productID = strings.TrimSpace(productID)
	if productID == "" || strings.TrimSpace(size) == "" {
		return "", "", false
	}
	return productID, domain.NormalizeSize(size), true
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, userID string) bool {
	if s.limiter == nil {
		return true
	}
	d := s.limiter.Check(r.Context(), "cart:"+userID)
	if d.Allowed {
		return true
	}
	s.metrics.RateLimited.Inc()
	secs := int(d.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, http.StatusTooManyRequests, "too many cart updates")
	return false
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrMissingProductID),
		errors.Is(err, app.ErrSizeRequired),
		errors.Is(err, app.ErrSizeUnavailable),
		errors.Is(err, app.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrProductNotFound):
		notFound(w, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("cart operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
