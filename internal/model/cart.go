package model

// CartItem is one distinct product configuration (item + variation + add-ons)
// and its quantity in a pending cart. Identity within a cart is
// (MenuItem.ID, Variation.ID or absence); add-ons do not distinguish lines.
type CartItem struct {
	MenuItem            MenuItem   `json:"menuItem"`
	Variation           *Variation `json:"variation,omitempty"`
	Addons              []Addon    `json:"addons"`
	Quantity            int        `json:"quantity"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	TotalPrice          float64    `json:"totalPrice"`
}

// UnitPrice is the effective per-unit price: the variation price when a
// variation is selected, otherwise the item's base price. Add-on prices are
// not part of the unit price.
func (c CartItem) UnitPrice() float64 {
	if c.Variation != nil {
		return c.Variation.Price
	}
	return c.MenuItem.Price
}

// VariationID returns the variation id, or "" when none is selected.
func (c CartItem) VariationID() string {
	if c.Variation != nil {
		return c.Variation.ID
	}
	return ""
}
