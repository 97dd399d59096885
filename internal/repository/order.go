package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// Ensure PostgresOrderRepository implements OrderRepository.
var _ OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository over database/sql.
type PostgresOrderRepository struct {
	db     *sql.DB
	ledger *InventoryLedger
	logger *zap.Logger
}

// NewPostgresOrderRepository creates a Postgres-backed order repository.
func NewPostgresOrderRepository(db *sql.DB, ledger *InventoryLedger, logger *zap.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		ledger: ledger,
		logger: logger,
	}
}

const orderColumns = `
	id, order_number, user_id, status, payment_status, payment_method,
	total_amount, shipping_cost, tax_amount, discount_amount,
	shipping_name, shipping_phone, shipping_email, shipping_address,
	shipping_city, shipping_country, shipping_postal_code,
	tracking_number, estimated_delivery, delivered_at, created_at, updated_at`

// CreateFromCart converts a cart into an order in one transaction: every
// line is reserved through the ledger (which also yields the unit price to
// capture), the order and its items are inserted, and the cart is drained.
// Any failure rolls the whole thing back.
func (r *PostgresOrderRepository) CreateFromCart(ctx context.Context, cart *models.Cart, params *CreateOrderParams) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	order := &models.Order{
		OrderNumber:    generateOrderNumber(now),
		UserID:         cart.UserID,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		PaymentMethod:  params.PaymentMethod,
		ShippingCost:   params.ShippingCost,
		TaxAmount:      params.TaxAmount,
		DiscountAmount: params.DiscountAmount,
		Shipping:       params.Shipping,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Reserve stock line by line. The ledger's conditional UPDATE returns
	// the catalog price it decremented against, which is exactly the
	// price-at-purchase for that item.
	for _, cartItem := range cart.Items {
		unitPrice, err := r.ledger.ReserveAndDecrement(ctx, tx, cartItem.ProductID, cartItem.Quantity)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: cartItem.ProductID,
			Quantity:  cartItem.Quantity,
			UnitPrice: unitPrice,
			Size:      cartItem.Size,
			Engraving: cartItem.Engraving,
		})
	}

	order.TotalAmount = order.Subtotal() + order.ShippingCost + order.TaxAmount - order.DiscountAmount

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, user_id, status, payment_status, payment_method,
			total_amount, shipping_cost, tax_amount, discount_amount,
			shipping_name, shipping_phone, shipping_email, shipping_address,
			shipping_city, shipping_country, shipping_postal_code,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`,
		order.OrderNumber,
		nullableID(order.UserID),
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.TotalAmount,
		order.ShippingCost,
		order.TaxAmount,
		order.DiscountAmount,
		order.Shipping.Name,
		order.Shipping.Phone,
		order.Shipping.Email,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.Country,
		order.Shipping.PostalCode,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, size, engraving)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Size, item.Engraving).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	// Drain the cart in the same transaction.
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	r.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.TotalAmount),
	)
	return order, nil
}

// GetByID retrieves an order and its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.hydrate(ctx, row)
}

// GetByOrderNumber retrieves an order by its public order number.
func (r *PostgresOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return r.hydrate(ctx, row)
}

// List retrieves orders matching the filter, newest first, plus the total
// match count for pagination.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	where := "WHERE 1=1"
	args := make([]interface{}, 0, 4)

	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, filter.Limit)
	limitIdx := len(args)
	args = append(args, filter.Offset)
	offsetIdx := len(args)

	query := fmt.Sprintf(
		"SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, limitIdx, offsetIdx,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// UpdateStatus applies a conditional status write. The WHERE clause pins
// the expected current status so that concurrent writers cannot both apply
// side effects; cancellation restores stock inside the same transaction.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, upd *StatusUpdate) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var deliveredAt *time.Time
	if upd.Status == models.OrderStatusDelivered {
		deliveredAt = &now
	}

	var estimated interface{}
	if upd.EstimatedDelivery != "" {
		parsed, err := time.Parse(time.RFC3339, upd.EstimatedDelivery)
		if err != nil {
			return nil, apperrors.NewValidationError("estimated_delivery", "must be RFC 3339")
		}
		estimated = parsed
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3,
		    tracking_number = COALESCE(NULLIF($4, ''), tracking_number),
		    estimated_delivery = COALESCE($5, estimated_delivery),
		    delivered_at = COALESCE($6, delivered_at),
		    updated_at = $7
		WHERE id = $1 AND status = $2
	`, id, upd.ExpectedFrom, upd.Status, upd.TrackingNumber, estimated, deliveredAt, now)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		// Either the order is gone or someone else moved it first.
		var current models.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("inspect order %d: %w", id, err)
		}
		return nil, &apperrors.InvalidTransitionError{
			Entity: "order status",
			From:   string(current),
			To:     string(upd.Status),
		}
	}

	if upd.Status == models.OrderStatusCancelled {
		if err := r.restockItems(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	r.logger.Info("order status updated",
		zap.Int64("order_id", id),
		zap.String("from", string(upd.ExpectedFrom)),
		zap.String("to", string(upd.Status)),
	)
	return r.GetByID(ctx, id)
}

// UpdatePaymentStatus writes the payment state. When confirm is set, the
// paid→confirmed coupling is applied in the same statement, conditional on
// the order still being pending.
func (r *PostgresOrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, payment models.PaymentStatus, confirm bool) (*models.Order, error) {
	var query string
	if confirm {
		query = `
			UPDATE orders
			SET payment_status = $2,
			    status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
			    updated_at = NOW()
			WHERE id = $1`
	} else {
		query = `
			UPDATE orders
			SET payment_status = $2, updated_at = NOW()
			WHERE id = $1`
	}

	result, err := r.db.ExecContext(ctx, query, id, payment)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, apperrors.ErrNotFound
	}

	r.logger.Info("order payment status updated",
		zap.Int64("order_id", id),
		zap.String("payment_status", string(payment)),
	)
	return r.GetByID(ctx, id)
}

// Stats aggregates order counts per status and total paid revenue.
func (r *PostgresOrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: make(map[models.OrderStatus]int)}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE payment_status = 'paid'`,
	).Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("order revenue: %w", err)
	}
	return stats, nil
}

func (r *PostgresOrderRepository) restockItems(ctx context.Context, tx *sql.Tx, orderID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("load items for restock: %w", err)
	}
	defer rows.Close()

	type line struct {
		productID int64
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			return err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if err := r.ledger.Restock(ctx, tx, l.productID, l.quantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresOrderRepository) hydrate(ctx context.Context, row *sql.Row) (*models.Order, error) {
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, size, engraving
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var size, engraving sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &size, &engraving); err != nil {
			return err
		}
		item.Size = size.String
		item.Engraving = engraving.String
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var userID sql.NullInt64
	var paymentMethod, email, postalCode, tracking sql.NullString
	var estimatedDelivery, deliveredAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&userID,
		&order.Status,
		&order.PaymentStatus,
		&paymentMethod,
		&order.TotalAmount,
		&order.ShippingCost,
		&order.TaxAmount,
		&order.DiscountAmount,
		&order.Shipping.Name,
		&order.Shipping.Phone,
		&email,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.Country,
		&postalCode,
		&tracking,
		&estimatedDelivery,
		&deliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	order.UserID = userID.Int64
	order.PaymentMethod = paymentMethod.String
	order.Shipping.Email = email.String
	order.Shipping.PostalCode = postalCode.String
	order.TrackingNumber = tracking.String
	if estimatedDelivery.Valid {
		order.EstimatedDelivery = &estimatedDelivery.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}
	return &order, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// generateOrderNumber builds a globally unique, time-sortable order number
// without a storage round-trip: compact timestamp plus 8 chars of a UUID
// (32 bits of entropy against same-second collisions).
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return "ORD-" + now.Format("20060102150405") + "-" + suffix
}
