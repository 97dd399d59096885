package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
)

// CartService manages the mutable cart. Cart operations check the catalog
// advisorily for fast feedback; the authoritative stock check is the
// checkout transaction.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the owner's cart, creating an empty one if none exists.
func (s *CartService) GetCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	return s.carts.GetOrCreate(ctx, owner)
}

// AddItem adds a product configuration to the owner's cart, merging with an
// existing line of the same (product, size, engraving). The stock ceiling
// applies to the merged quantity.
func (s *CartService) AddItem(ctx context.Context, owner models.CartOwner, item *models.CartItem) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	if item.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", "quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.ErrProductInactive
	}

	cart, err := s.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Check the merged quantity against current stock. Advisory only; the
	// checkout transaction is what enforces it.
	merged := item.Quantity
	for _, existing := range cart.Items {
		if existing.ProductID == item.ProductID &&
			existing.Size == item.Size &&
			existing.Engraving == item.Engraving {
			merged += existing.Quantity
		}
	}
	if merged > product.StockQuantity {
		return nil, apperrors.ErrInsufficientStock
	}

	if _, err := s.carts.AddItem(ctx, cart.ID, item); err != nil {
		return nil, err
	}

	s.logger.Info("cart item added",
		zap.Int64("cart_id", cart.ID),
		zap.Int64("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)
	return s.carts.GetByOwner(ctx, owner)
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID int64, quantity int) (*models.Cart, error) {
	if _, err := s.ownedCart(ctx, owner, itemID); err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.carts.RemoveItem(ctx, itemID); err != nil {
			return nil, err
		}
		return s.carts.GetByOwner(ctx, owner)
	}

	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.StockQuantity {
		return nil, apperrors.ErrInsufficientStock
	}

	if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return s.carts.GetByOwner(ctx, owner)
}

// RemoveItem deletes a line from the owner's cart.
func (s *CartService) RemoveItem(ctx context.Context, owner models.CartOwner, itemID int64) (*models.Cart, error) {
	if _, err := s.ownedCart(ctx, owner, itemID); err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.carts.GetByOwner(ctx, owner)
}

// Clear empties the owner's cart.
func (s *CartService) Clear(ctx context.Context, owner models.CartOwner) error {
	if !owner.Valid() {
		return apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	cart, err := s.carts.GetByOwner(ctx, owner)
	if err == apperrors.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, cart.ID)
}

// Count returns the total item quantity in the owner's cart.
func (s *CartService) Count(ctx context.Context, owner models.CartOwner) (int, error) {
	if !owner.Valid() {
		return 0, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	cart, err := s.carts.GetByOwner(ctx, owner)
	if err == apperrors.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

// ownedCart resolves the owner's cart and verifies the item belongs to it,
// so one owner cannot mutate another's lines by guessing ids.
func (s *CartService) ownedCart(ctx context.Context, owner models.CartOwner, itemID int64) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	cart, err := s.carts.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, apperrors.ErrNotFound
	}
	return cart, nil
}
