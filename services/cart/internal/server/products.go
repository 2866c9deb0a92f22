package server

import (
	"net/http"
	"net/url"
	"strings"

	"solecart/pkg/domain"
)

type listProductsResponse struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	products := s.app.Products()
	writeJSON(w, http.StatusOK, listProductsResponse{Items: products, Count: len(products)})
}

func (s *Server) handleProductByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/api/products/")
	id, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(id) == "" || strings.Contains(raw, "/") {
		notFound(w, "not found")
		return
	}
	product, ok := s.app.Product(id)
	if !ok {
		notFound(w, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}
