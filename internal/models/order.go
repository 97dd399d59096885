package models

import "time"

// OrderStatus is the fulfillment state of an order. Transitions are
// forward-only; delivered and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is in the enumerated set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is in the enumerated set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ShippingInfo is the contact and destination block captured at checkout.
type ShippingInfo struct {
	Name       string `json:"shipping_name"`
	Phone      string `json:"shipping_phone"`
	Email      string `json:"shipping_email,omitempty"`
	Address    string `json:"shipping_address"`
	City       string `json:"shipping_city"`
	Country    string `json:"shipping_country"`
	PostalCode string `json:"shipping_postal_code,omitempty"`
}

// Order is created once from a cart and is append-only afterwards: items are
// fixed, totals are fixed, and only the status machines move.
type Order struct {
	ID             int64         `json:"id"`
	OrderNumber    string        `json:"order_number"`
	UserID         int64         `json:"user_id,omitempty"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentMethod  string        `json:"payment_method,omitempty"`
	TotalAmount    float64       `json:"total_amount"`
	ShippingCost   float64       `json:"shipping_cost"`
	TaxAmount      float64       `json:"tax_amount"`
	DiscountAmount float64       `json:"discount_amount"`

	Shipping ShippingInfo `json:"shipping"`

	TrackingNumber    string     `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`

	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Subtotal sums quantity times the captured unit price of every item.
func (o *Order) Subtotal() float64 {
	subtotal := 0.0
	for _, item := range o.Items {
		subtotal += float64(item.Quantity) * item.UnitPrice
	}
	return subtotal
}

// OrderItem is one purchased line. UnitPrice is the catalog price at the
// moment of order creation and is never recomputed from later catalog edits.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Size      string  `json:"size,omitempty"`
	Engraving string  `json:"engraving,omitempty"`
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID int64
	Status *OrderStatus
	Limit  int
	Offset int
}

// OrderStats is the admin aggregate view: order counts per status and total
// paid revenue.
type OrderStats struct {
	TotalOrders  int                 `json:"total_orders"`
	ByStatus     map[OrderStatus]int `json:"by_status"`
	TotalRevenue float64             `json:"total_revenue"`
}
