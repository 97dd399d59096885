package repository

import (
	"context"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// CreateOrderParams carries the checkout inputs that are not derived from
// the cart: shipping details and order-level charges.
type CreateOrderParams struct {
	PaymentMethod  string
	ShippingCost   float64
	TaxAmount      float64
	DiscountAmount float64
	Shipping       models.ShippingInfo
}

// StatusUpdate is a conditional status write: it only applies while the
// order is still in ExpectedFrom, which makes concurrent writers lose
// cleanly instead of double-applying side effects.
type StatusUpdate struct {
	ExpectedFrom      models.OrderStatus
	Status            models.OrderStatus
	TrackingNumber    string
	EstimatedDelivery string // RFC 3339, optional
}

// OrderRepository owns order persistence, including the transactional
// cart-to-order conversion.
type OrderRepository interface {
	// CreateFromCart atomically reserves stock for every cart line,
	// creates the order with captured unit prices, and drains the cart.
	// Any failure leaves stock, orders, and the cart untouched.
	CreateFromCart(ctx context.Context, cart *models.Cart, params *CreateOrderParams) (*models.Order, error)

	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)

	// UpdateStatus applies upd conditionally. Moving to cancelled restores
	// every item's stock in the same transaction; moving to delivered
	// stamps delivered_at.
	UpdateStatus(ctx context.Context, id int64, upd *StatusUpdate) (*models.Order, error)

	// UpdatePaymentStatus applies the payment write, optionally advancing
	// status pending→confirmed in the same statement (paid coupling).
	UpdatePaymentStatus(ctx context.Context, id int64, payment models.PaymentStatus, confirm bool) (*models.Order, error)

	Stats(ctx context.Context) (*models.OrderStats, error)
}

// ProductRepository reads catalog products. Stock mutation is not here; it
// belongs exclusively to the InventoryLedger.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// CartRepository owns cart persistence.
type CartRepository interface {
	GetOrCreate(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	GetByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	GetItem(ctx context.Context, itemID int64) (*models.CartItem, error)

	// AddItem merges quantity into an existing (product, size, engraving)
	// line or inserts a new one, and returns the resulting line.
	AddItem(ctx context.Context, cartID int64, item *models.CartItem) (*models.CartItem, error)

	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}

// OrderCache is the read-through cache in front of order lookups.
type OrderCache interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, order *models.Order) error
}
