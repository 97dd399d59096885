package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

var _ CartRepository = (*PostgresCartRepository)(nil)

// PostgresCartRepository owns cart persistence. One cart per owner; the
// owner is either a user id or a guest session id.
type PostgresCartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresCartRepository(db *sql.DB, logger *zap.Logger) *PostgresCartRepository {
	return &PostgresCartRepository{db: db, logger: logger}
}

// GetOrCreate returns the owner's cart, creating an empty one if none exists.
func (r *PostgresCartRepository) GetOrCreate(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := r.GetByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if err != apperrors.ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	cart = &models.Cart{
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, nullableID(owner.UserID), nullableString(owner.SessionID), now, now).Scan(&cart.ID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	r.logger.Info("cart created",
		zap.Int64("cart_id", cart.ID),
		zap.Int64("user_id", owner.UserID),
		zap.String("session_id", owner.SessionID),
	)
	return cart, nil
}

// GetByOwner returns the owner's cart with items, or ErrNotFound.
func (r *PostgresCartRepository) GetByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var query string
	var arg interface{}
	if owner.UserID != 0 {
		query = `SELECT id, COALESCE(user_id, 0), COALESCE(session_id, ''), created_at, updated_at
		         FROM carts WHERE user_id = $1`
		arg = owner.UserID
	} else {
		query = `SELECT id, COALESCE(user_id, 0), COALESCE(session_id, ''), created_at, updated_at
		         FROM carts WHERE session_id = $1`
		arg = owner.SessionID
	}

	var cart models.Cart
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if err := r.loadItems(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetItem returns one cart line by id.
func (r *PostgresCartRepository) GetItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	var size, engraving sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.size, ci.engraving,
		       p.name, p.price, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1
	`, itemID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &size, &engraving,
		&item.ProductName, &item.ProductPrice, &item.AddedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart item %d: %w", itemID, err)
	}
	item.Size = size.String
	item.Engraving = engraving.String
	return &item, nil
}

// AddItem merges quantity into the existing (product, size, engraving) line
// or inserts a new one. The upsert keys on the line's identity so two
// concurrent adds of the same configuration merge instead of duplicating.
func (r *PostgresCartRepository) AddItem(ctx context.Context, cartID int64, item *models.CartItem) (*models.CartItem, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, size, engraving, added_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (cart_id, product_id, size, engraving)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id
	`, cartID, item.ProductID, item.Quantity, item.Size, item.Engraving).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("touch cart %d: %w", cartID, err)
	}
	return r.GetItem(ctx, id)
}

// UpdateItemQuantity sets a line's quantity. Callers remove the line instead
// of passing zero or less.
func (r *PostgresCartRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item %d: %w", itemID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RemoveItem deletes one cart line.
func (r *PostgresCartRepository) RemoveItem(ctx context.Context, itemID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item %d: %w", itemID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Clear removes every line from a cart.
func (r *PostgresCartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart %d: %w", cartID, err)
	}
	return nil
}

func (r *PostgresCartRepository) loadItems(ctx context.Context, cart *models.Cart) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.size, ci.engraving,
		       p.name, p.price, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id
	`, cart.ID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		var size, engraving sql.NullString
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&size, &engraving, &item.ProductName, &item.ProductPrice, &item.AddedAt); err != nil {
			return err
		}
		item.Size = size.String
		item.Engraving = engraving.String
		cart.Items = append(cart.Items, item)
	}
	return rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
