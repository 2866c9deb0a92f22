package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an identifier that may arrive on the wire as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(s)
	return nil
}

// Size is a footwear size label. Numeric sizes are kept in their string form.
type Size string

// NormalizeSize trims a raw size label.
func NormalizeSize(raw string) Size {
	return Size(strings.TrimSpace(raw))
}

func (s *Size) UnmarshalJSON(data []byte) error {
	v, err := flexString(data)
	if err != nil {
		return fmt.Errorf("decode size: %w", err)
	}
	*s = Size(v)
	return nil
}

func (s Size) Empty() bool {
	return strings.TrimSpace(string(s)) == ""
}

func (s Size) String() string {
	return string(s)
}

type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// Product is a catalog entry as served by the backend. Different endpoints
// identify products by productId, _id or id.
type Product struct {
	ProductID   ID       `json:"productId,omitempty" yaml:"productId"`
	EntityID    ID       `json:"_id,omitempty" yaml:"-"`
	ID          ID       `json:"id,omitempty" yaml:"-"`
	Name        string   `json:"name" yaml:"name"`
	AltNames    []string `json:"altNames,omitempty" yaml:"altNames"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Gender      Gender   `json:"gender,omitempty" yaml:"gender"`
	Image       string   `json:"image,omitempty" yaml:"image"`
	Images      []string `json:"images,omitempty" yaml:"images"`
	Price       float64  `json:"price" yaml:"price"`
	LabelPrice  float64  `json:"labellPrice,omitempty" yaml:"labelPrice"`
	Stock       int      `json:"stock" yaml:"stock"`
	IsAvailable bool     `json:"isAvailable" yaml:"isAvailable"`
	Sizes       []Size   `json:"sizes,omitempty" yaml:"sizes"`
}

// ResolveID returns the first non-empty of productId, _id and id.
func (p Product) ResolveID() (string, bool) {
	for _, candidate := range []ID{p.ProductID, p.EntityID, p.ID} {
		if id := strings.TrimSpace(string(candidate)); id != "" {
			return id, true
		}
	}
	return "", false
}

// PrimaryImage prefers the first gallery image over the single image field.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 && strings.TrimSpace(p.Images[0]) != "" {
		return p.Images[0]
	}
	return p.Image
}

// OffersSize reports whether size is listed. A product without a size list
// accepts any size.
func (p Product) OffersSize(size Size) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	want := NormalizeSize(string(size))
	for _, s := range p.Sizes {
		if NormalizeSize(string(s)) == want {
			return true
		}
	}
	return false
}

// Snapshot copies the display fields a cart row keeps. The snapshot is not
// refreshed if the product changes later.
func (p Product) Snapshot(size Size, quantity int) (LineItem, bool) {
	id, ok := p.ResolveID()
	if !ok {
		return LineItem{}, false
	}
	return LineItem{
		ProductID: ID(id),
		Name:      p.Name,
		Image:     p.PrimaryImage(),
		Price:     p.Price,
		Quantity:  quantity,
		Size:      NormalizeSize(string(size)),
		AltNames:  p.AltNames,
	}, true
}

// LineItem is one cart row, unique per (ProductID, Size).
type LineItem struct {
	ProductID ID       `json:"productId"`
	Name      string   `json:"name"`
	Image     string   `json:"image,omitempty"`
	Price     float64  `json:"price"`
	Quantity  int      `json:"quantity"`
	Size      Size     `json:"size"`
	AltNames  []string `json:"altNames,omitempty"`
}

// Key identifies a line item inside one cart.
type Key struct {
	ProductID string
	Size      Size
}

func NewKey(productID string, size Size) Key {
	return Key{ProductID: strings.TrimSpace(productID), Size: NormalizeSize(string(size))}
}

func (it LineItem) Key() Key {
	return NewKey(string(it.ProductID), it.Size)
}

// Subtotal is price times quantity.
func (it LineItem) Subtotal() float64 {
	return it.Price * float64(it.Quantity)
}

// Product rebuilds the product shape a line item was snapshotted from, so a
// stored row can be pushed through the same add path as a catalog product.
func (it LineItem) Product() Product {
	return Product{
		ProductID: it.ProductID,
		Name:      it.Name,
		Image:     it.Image,
		Price:     it.Price,
		AltNames:  it.AltNames,
	}
}

func flexString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
