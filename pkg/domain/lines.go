package domain

// Lines is an ordered cart. Every method returns a new slice and leaves the
// receiver untouched; no row with quantity <= 0 is ever produced.
type Lines []LineItem

// Index returns the position of the row for key, or -1.
func (l Lines) Index(key Key) int {
	for i, it := range l {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// Add increments the row matching item's key by qty. A missing row is
// appended only when qty > 0; a row whose quantity drops to <= 0 is removed.
func (l Lines) Add(item LineItem, qty int) Lines {
	key := item.Key()
	next := l.Clone()
	if i := next.Index(key); i >= 0 {
		quantity := next[i].Quantity + qty
		if quantity <= 0 {
			return append(next[:i], next[i+1:]...)
		}
		next[i].Quantity = quantity
		return next
	}
	if qty <= 0 {
		return next
	}
	item.ProductID = ID(key.ProductID)
	item.Size = key.Size
	item.Quantity = qty
	return append(next, item)
}

// Remove drops the row for key. Removing an absent key is a no-op.
func (l Lines) Remove(key Key) Lines {
	next := make(Lines, 0, len(l))
	for _, it := range l {
		if it.Key() != key {
			next = append(next, it)
		}
	}
	return next
}

// SetQuantity sets an absolute quantity. quantity <= 0 removes the row.
// The bool reports whether a row for key existed.
func (l Lines) SetQuantity(key Key, quantity int) (Lines, bool) {
	i := l.Index(key)
	if i < 0 {
		return l.Clone(), false
	}
	if quantity <= 0 {
		return l.Remove(key), true
	}
	next := l.Clone()
	next[i].Quantity = quantity
	return next, true
}

// Total sums price * quantity over all rows.
func (l Lines) Total() float64 {
	var sum float64
	for _, it := range l {
		sum += it.Subtotal()
	}
	return sum
}

// Count sums quantities.
func (l Lines) Count() int {
	n := 0
	for _, it := range l {
		n += it.Quantity
	}
	return n
}

func (l Lines) Clone() Lines {
	next := make(Lines, len(l))
	copy(next, l)
	return next
}
