package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

func newOrderRepoTest(t *testing.T) (*PostgresOrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	repo := NewPostgresOrderRepository(db, NewInventoryLedger(logger), logger)
	return repo, mock
}

func orderRows(id int64, status models.OrderStatus, payment models.PaymentStatus, total float64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "order_number", "user_id", "status", "payment_status", "payment_method",
		"total_amount", "shipping_cost", "tax_amount", "discount_amount",
		"shipping_name", "shipping_phone", "shipping_email", "shipping_address",
		"shipping_city", "shipping_country", "shipping_postal_code",
		"tracking_number", "estimated_delivery", "delivered_at", "created_at", "updated_at",
	}).AddRow(
		id, "ORD-20260801120000-ABCD1234", 7, status, payment, "card",
		total, 25.0, 0.0, 0.0,
		"Sara", "+966500000000", nil, "King Fahd Rd",
		"Riyadh", "SA", nil,
		nil, nil, nil, now, now,
	)
}

func TestCreateFromCart_CapturesUnitPricesAndTotal(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	cart := &models.Cart{
		ID:     3,
		UserID: 7,
		Items: []models.CartItem{
			{ProductID: 11, Quantity: 2},
			{ProductID: 12, Quantity: 1, Size: "18"},
		},
	}
	params := &CreateOrderParams{
		PaymentMethod: "card",
		ShippingCost:  25.0,
		Shipping: models.ShippingInfo{
			Name: "Sara", Phone: "+966500000000",
			Address: "King Fahd Rd", City: "Riyadh", Country: "SA",
		},
	}

	mock.ExpectBegin()
	// Stock reservation returns the catalog price captured for each line.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(11), 2).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(450.00))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(12), 1).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(1299.50))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	order, err := repo.CreateFromCart(context.Background(), cart, params)
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 450.00, order.Items[0].UnitPrice)
	assert.Equal(t, 1299.50, order.Items[1].UnitPrice)

	// total = sum(quantity * captured unit price) + shipping + tax - discount
	wantTotal := 2*450.00 + 1*1299.50 + 25.0
	assert.Equal(t, wantTotal, order.TotalAmount)
	assert.Equal(t, order.Subtotal()+order.ShippingCost+order.TaxAmount-order.DiscountAmount, order.TotalAmount)

	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, order.OrderNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromCart_InsufficientStockRollsBack(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	cart := &models.Cart{
		ID:     3,
		UserID: 7,
		Items: []models.CartItem{
			{ProductID: 11, Quantity: 5},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(11), 5).
		WillReturnRows(sqlmock.NewRows([]string{"price"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active, stock_quantity")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "stock_quantity"}).AddRow(true, 2))
	mock.ExpectRollback()

	_, err := repo.CreateFromCart(context.Background(), cart, &CreateOrderParams{})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromCart_InactiveProduct(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	cart := &models.Cart{
		ID:    3,
		Items: []models.CartItem{{ProductID: 11, Quantity: 1}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(11), 1).
		WillReturnRows(sqlmock.NewRows([]string{"price"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active, stock_quantity")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "stock_quantity"}).AddRow(false, 9))
	mock.ExpectRollback()

	_, err := repo.CreateFromCart(context.Background(), cart, &CreateOrderParams{})
	assert.ErrorIs(t, err, apperrors.ErrProductInactive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_CancelRestocksItems(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_id, quantity FROM order_items")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(int64(11), 2).
			AddRow(int64(12), 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(11), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(12), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Reload after commit.
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id")).
		WithArgs(int64(42)).
		WillReturnRows(orderRows(42, models.OrderStatusCancelled, models.PaymentStatusPending, 100))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "size", "engraving"}))

	order, err := repo.UpdateStatus(context.Background(), 42, &StatusUpdate{
		ExpectedFrom: models.OrderStatusPending,
		Status:       models.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ConcurrentTransitionLosesCleanly(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	// The conditional write matches zero rows because another writer moved
	// the order first; the caller gets an invalid transition, not a restock.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 42, &StatusUpdate{
		ExpectedFrom: models.OrderStatusPending,
		Status:       models.OrderStatusCancelled,
	})

	var transitionErr *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "cancelled", transitionErr.From)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatus_PaidConfirmsPendingOrder(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs(int64(42), models.PaymentStatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id")).
		WithArgs(int64(42)).
		WillReturnRows(orderRows(42, models.OrderStatusConfirmed, models.PaymentStatusPaid, 100))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "size", "engraving"}))

	order, err := repo.UpdatePaymentStatus(context.Background(), 42, models.PaymentStatusPaid, true)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newOrderRepoTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	number := generateOrderNumber(now)

	assert.Regexp(t, `^ORD-20260801120000-[0-9A-F]{8}$`, number)
	assert.NotEqual(t, number, generateOrderNumber(now), "suffix must differ per call")
}
