package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
)

// InventoryLedger is the only mutator of products.stock_quantity. The check
// and the decrement are a single conditional UPDATE, so the row lock it
// takes is what serializes competing checkouts: of two transactions racing
// for the last unit, exactly one sees the condition hold.
type InventoryLedger struct {
	logger *zap.Logger
}

// NewInventoryLedger creates a ledger. It operates on the caller's
// transaction; it never commits or rolls back itself.
func NewInventoryLedger(logger *zap.Logger) *InventoryLedger {
	return &InventoryLedger{logger: logger}
}

// ReserveAndDecrement atomically decrements stock for one product and
// returns the catalog price observed by the same statement, which is the
// price-at-purchase the order item must record. Zero rows means the
// condition failed; the follow-up read classifies why.
func (l *InventoryLedger) ReserveAndDecrement(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (float64, error) {
	if quantity <= 0 {
		return 0, apperrors.NewValidationError("quantity", "quantity must be positive")
	}

	var unitPrice float64
	err := tx.QueryRowContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE AND stock_quantity >= $2
		RETURNING price
	`, productID, quantity).Scan(&unitPrice)

	if err == nil {
		return unitPrice, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("reserve stock for product %d: %w", productID, err)
	}

	// Condition failed; distinguish missing, inactive, and short stock.
	var isActive bool
	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT is_active, stock_quantity FROM products WHERE id = $1`,
		productID,
	).Scan(&isActive, &stock)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("inspect product %d: %w", productID, err)
	}
	if !isActive {
		return 0, apperrors.ErrProductInactive
	}

	l.logger.Info("stock reservation refused",
		zap.Int64("product_id", productID),
		zap.Int("requested", quantity),
		zap.Int("available", stock),
	)
	return 0, apperrors.ErrInsufficientStock
}

// Restock returns quantity to a product. Used only by order cancellation,
// inside the same transaction that flips the order's status.
func (l *InventoryLedger) Restock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("restock product %d: %w", productID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
