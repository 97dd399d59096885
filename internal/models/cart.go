package models

import "time"

// CartOwner identifies who a cart belongs to: a registered user or a guest
// session. Exactly one of the two must be set.
type CartOwner struct {
	UserID    int64  `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Valid reports whether exactly one owner field is set.
func (o CartOwner) Valid() bool {
	return (o.UserID != 0) != (o.SessionID != "")
}

// Cart is the mutable, transient staging area drained on checkout.
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalItems sums item quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums quantity times the current catalog price of each item.
// Orders do not use this; they capture unit prices transactionally.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += float64(item.Quantity) * item.ProductPrice
	}
	return total
}

// CartItem is one line in a cart. Identity within a cart is
// (product, size, engraving); re-adding the same configuration merges
// quantities instead of duplicating rows.
type CartItem struct {
	ID        int64  `json:"id"`
	CartID    int64  `json:"cart_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Engraving string `json:"engraving,omitempty"`

	// Denormalized product fields for display and totals.
	ProductName  string    `json:"product_name,omitempty"`
	ProductPrice float64   `json:"product_price,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}
