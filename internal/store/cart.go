package store

import "tabletap/internal/model"

// Cart holds the pending line items for one table visit. It is a plain
// in-memory container; persistence is layered on by CartStore. Line identity
// is (menu item id, variation id or absence) — add-ons do not distinguish
// lines.
type Cart struct {
	items []model.CartItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart builds a cart from previously persisted line items.
func RestoreCart(items []model.CartItem) *Cart {
	return &Cart{items: items}
}

func (c *Cart) find(menuItemID, variationID string) int {
	for i, it := range c.items {
		if it.MenuItem.ID == menuItemID && it.VariationID() == variationID {
			return i
		}
	}
	return -1
}

// Add appends the candidate line item, or merges it into an existing line
// with the same identity by incrementing quantity. On merge the line total is
// recomputed as quantity × unit price; the candidate's own TotalPrice (which
// may include add-on cost computed at selection time) is kept only for brand
// new lines.
func (c *Cart) Add(item model.CartItem) {
	if i := c.find(item.MenuItem.ID, item.VariationID()); i >= 0 {
		c.items[i].Quantity += item.Quantity
		c.items[i].TotalPrice = float64(c.items[i].Quantity) * c.items[i].UnitPrice()
		return
	}
	c.items = append(c.items, item)
}

// Remove deletes the line with the given identity. Removing an absent line is
// a no-op.
func (c *Cart) Remove(menuItemID, variationID string) {
	i := c.find(menuItemID, variationID)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// UpdateQuantity sets the quantity of an existing line and recomputes its
// total as quantity × unit price. A quantity of zero or less removes the
// line. Unknown identities are a no-op.
func (c *Cart) UpdateQuantity(menuItemID string, quantity int, variationID string) {
	i := c.find(menuItemID, variationID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return
	}
	c.items[i].Quantity = quantity
	c.items[i].TotalPrice = float64(quantity) * c.items[i].UnitPrice()
}

// Clear empties the cart. Called after a successful order placement.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the current line items.
func (c *Cart) Items() []model.CartItem {
	out := make([]model.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums the stored line totals. Recomputed on every call.
func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.TotalPrice
	}
	return sum
}

// ItemCount sums quantities across lines, not the number of distinct lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}
