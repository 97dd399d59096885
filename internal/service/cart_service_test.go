package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

type fakeProductRepo struct {
	products map[int64]*models.Product
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func newTestCartService(t *testing.T) (*CartService, *fakeCartRepo, *fakeProductRepo) {
	t.Helper()
	carts := newFakeCartRepo()
	products := &fakeProductRepo{products: map[int64]*models.Product{
		11: {ID: 11, Name: "خاتم ذهب", NameEN: "Gold Ring", Price: 450, StockQuantity: 5, IsActive: true},
		12: {ID: 12, Name: "سوار ذهب", NameEN: "Gold Bangle", Price: 1299.50, StockQuantity: 2, IsActive: true},
		13: {ID: 13, NameEN: "Retired Pendant", Price: 800, StockQuantity: 4, IsActive: false},
	}}
	return NewCartService(carts, products, zap.NewNop()), carts, products
}

func TestCartService_AddItemMergesSameConfiguration(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{SessionID: "guest-1"}

	_, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 2, Size: "18"})
	require.NoError(t, err)

	cart, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 1, Size: "18"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1, "same configuration must merge")
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_AddItemDistinctConfigurationsStaySeparate(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{SessionID: "guest-1"}

	_, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 1, Size: "18"})
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 1, Size: "20"})
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
}

func TestCartService_AddItemStockCeilingCountsMergedQuantity(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{UserID: 5}

	_, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 12, Quantity: 2})
	require.NoError(t, err)

	// Stock is 2; a further unit would take the merged line to 3.
	_, err = svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 12, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
}

func TestCartService_AddItemRejectsInactiveProduct(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	_, err := svc.AddItem(context.Background(), models.CartOwner{UserID: 5}, &models.CartItem{ProductID: 13, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrProductInactive)
}

func TestCartService_AddItemRejectsUnknownProduct(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	_, err := svc.AddItem(context.Background(), models.CartOwner{UserID: 5}, &models.CartItem{ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_AddItemOwnerValidation(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	var validationErr *apperrors.ValidationError
	_, err := svc.AddItem(context.Background(), models.CartOwner{}, &models.CartItem{ProductID: 11, Quantity: 1})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.AddItem(context.Background(), models.CartOwner{UserID: 1, SessionID: "x"}, &models.CartItem{ProductID: 11, Quantity: 1})
	assert.ErrorAs(t, err, &validationErr)
}

func TestCartService_UpdateItemQuantityZeroRemoves(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{UserID: 5}

	cart, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 2})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItemQuantity(context.Background(), owner, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_UpdateItemQuantityStockCeiling(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{UserID: 5}

	cart, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(context.Background(), owner, cart.Items[0].ID, 6)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
}

func TestCartService_CannotTouchAnotherOwnersItem(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	ownerA := models.CartOwner{UserID: 1}
	ownerB := models.CartOwner{UserID: 2}

	cartA, err := svc.AddItem(context.Background(), ownerA, &models.CartItem{ProductID: 11, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.GetCart(context.Background(), ownerB)
	require.NoError(t, err)

	_, err = svc.RemoveItem(context.Background(), ownerB, cartA.Items[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_ClearAndCount(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	owner := models.CartOwner{SessionID: "guest-9"}

	_, err := svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 11, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), owner, &models.CartItem{ProductID: 12, Quantity: 1})
	require.NoError(t, err)

	count, err := svc.Count(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, svc.Clear(context.Background(), owner))

	count, err = svc.Count(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCartService_ClearMissingCartIsNoop(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	assert.NoError(t, svc.Clear(context.Background(), models.CartOwner{UserID: 404}))
}
