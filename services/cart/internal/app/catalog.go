package app

import (
	"strings"

	"solecart/pkg/domain"
)

// Catalog is the read-only product list seeded from config.
type Catalog struct {
	order []string
	byID  map[string]domain.Product
}

func NewCatalog(products []domain.Product) *Catalog {
	c := &Catalog{byID: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		id, ok := p.ResolveID()
		if !ok {
			continue
		}
		if _, dup := c.byID[id]; !dup {
			c.order = append(c.order, id)
		}
		p.ProductID = domain.ID(id)
		p.EntityID = domain.ID(id)
		c.byID[id] = p
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.order)
}

func (c *Catalog) List() []domain.Product {
	out := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Get(id string) (domain.Product, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}
