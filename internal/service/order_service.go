package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/events"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/metrics"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
)

// statusRank orders the forward-only fulfillment states. Cancelled and
// delivered are terminal and have no outgoing edges.
var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// cancellableFrom lists the states an order can still be cancelled from.
// Once shipped, cancellation is no longer an option.
var cancellableFrom = map[models.OrderStatus]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusConfirmed:  true,
	models.OrderStatusProcessing: true,
}

// validStatusTransition reports whether from → to is a legal move.
func validStatusTransition(from, to models.OrderStatus) bool {
	if from == to {
		return false
	}
	if to == models.OrderStatusCancelled {
		return cancellableFrom[from]
	}
	fromRank, ok := statusRank[from]
	if !ok {
		// Terminal state; nothing leaves it.
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// validPaymentTransition reports whether the payment state may move.
// Refunded is terminal; refunds only apply to paid orders; a failed
// payment may be retried.
func validPaymentTransition(from, to models.PaymentStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case models.PaymentStatusPending:
		return to == models.PaymentStatusPaid || to == models.PaymentStatusFailed
	case models.PaymentStatusFailed:
		return to == models.PaymentStatusPaid
	case models.PaymentStatusPaid:
		return to == models.PaymentStatusRefunded
	}
	return false
}

// OrderWorkflow orchestrates checkout and the order state machines. The
// repository owns atomicity; the workflow owns transition legality, the
// read-through cache, and event publication.
type OrderWorkflow struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	cache     repository.OrderCache
	publisher events.OrderEventPublisher
	logger    *zap.Logger
}

// NewOrderWorkflow creates the workflow. cache and publisher may be nil
// when those features are disabled.
func NewOrderWorkflow(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	cache repository.OrderCache,
	publisher events.OrderEventPublisher,
	logger *zap.Logger,
) *OrderWorkflow {
	return &OrderWorkflow{
		orders:    orders,
		carts:     carts,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateFromCart converts the owner's cart into an order. The repository
// call is all-or-nothing; cache fill and event publication afterwards are
// best-effort.
func (w *OrderWorkflow) CreateFromCart(ctx context.Context, owner models.CartOwner, params *repository.CreateOrderParams) (*models.Order, error) {
	if !owner.Valid() {
		return nil, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}

	cart, err := w.carts.GetByOwner(ctx, owner)
	if err == apperrors.ErrNotFound {
		return nil, apperrors.ErrCartEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.ErrCartEmpty
	}

	order, err := w.orders.CreateFromCart(ctx, cart, params)
	if err != nil {
		metrics.OrderCreateFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	metrics.OrdersCreatedTotal.Inc()

	w.cacheSet(ctx, order)
	if w.publisher != nil {
		if err := w.publisher.PublishOrderCreated(ctx, order); err != nil {
			w.logger.Error("failed to publish order created event",
				zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

// GetOrder retrieves an order, serving from cache when possible.
func (w *OrderWorkflow) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if w.cache != nil {
		if cached, err := w.cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	order, err := w.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	w.cacheSet(ctx, order)
	return order, nil
}

// GetOrderByNumber retrieves an order by its public number.
func (w *OrderWorkflow) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if w.cache != nil {
		if cached, err := w.cache.GetByNumber(ctx, orderNumber); err == nil && cached != nil {
			return cached, nil
		}
	}

	order, err := w.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	w.cacheSet(ctx, order)
	return order, nil
}

// ListOrders returns orders matching the filter plus the total match count.
func (w *OrderWorkflow) ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return w.orders.List(ctx, filter)
}

// UpdateStatus moves an order through the fulfillment state machine. The
// current status read here is pinned as ExpectedFrom so a concurrent
// transition makes this one fail instead of double-applying.
func (w *OrderWorkflow) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, tracking, estimatedDelivery string) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "unknown order status")
	}

	current, err := w.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !validStatusTransition(current.Status, status) {
		return nil, &apperrors.InvalidTransitionError{
			Entity: "order status",
			From:   string(current.Status),
			To:     string(status),
		}
	}

	updated, err := w.orders.UpdateStatus(ctx, id, &repository.StatusUpdate{
		ExpectedFrom:      current.Status,
		Status:            status,
		TrackingNumber:    tracking,
		EstimatedDelivery: estimatedDelivery,
	})
	if err != nil {
		return nil, err
	}

	w.cacheSet(ctx, updated)
	if w.publisher != nil {
		if err := w.publisher.PublishOrderStatusChanged(ctx, updated, current.Status); err != nil {
			w.logger.Error("failed to publish status change event",
				zap.Int64("order_id", id), zap.Error(err))
		}
	}
	return updated, nil
}

// UpdatePaymentStatus moves an order's payment state. A successful payment
// on a pending order also confirms the order, in the same write.
func (w *OrderWorkflow) UpdatePaymentStatus(ctx context.Context, id int64, payment models.PaymentStatus) (*models.Order, error) {
	if !payment.Valid() {
		return nil, apperrors.NewValidationError("payment_status", "unknown payment status")
	}

	current, err := w.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !validPaymentTransition(current.PaymentStatus, payment) {
		return nil, &apperrors.InvalidTransitionError{
			Entity: "payment status",
			From:   string(current.PaymentStatus),
			To:     string(payment),
		}
	}

	confirm := payment == models.PaymentStatusPaid && current.Status == models.OrderStatusPending
	updated, err := w.orders.UpdatePaymentStatus(ctx, id, payment, confirm)
	if err != nil {
		return nil, err
	}

	w.cacheSet(ctx, updated)
	if w.publisher != nil {
		if err := w.publisher.PublishOrderPaymentChanged(ctx, updated, current.PaymentStatus); err != nil {
			w.logger.Error("failed to publish payment change event",
				zap.Int64("order_id", id), zap.Error(err))
		}
		if confirm {
			if err := w.publisher.PublishOrderStatusChanged(ctx, updated, models.OrderStatusPending); err != nil {
				w.logger.Error("failed to publish status change event",
					zap.Int64("order_id", id), zap.Error(err))
			}
		}
	}
	return updated, nil
}

// Stats returns aggregate order counts and revenue.
func (w *OrderWorkflow) Stats(ctx context.Context) (*models.OrderStats, error) {
	return w.orders.Stats(ctx)
}

func (w *OrderWorkflow) cacheSet(ctx context.Context, order *models.Order) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Set(ctx, order); err != nil {
		w.logger.Warn("failed to cache order",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func failureReason(err error) string {
	switch {
	case err == apperrors.ErrInsufficientStock:
		return "insufficient_stock"
	case err == apperrors.ErrProductInactive:
		return "product_inactive"
	case err == apperrors.ErrNotFound:
		return "product_not_found"
	case err == apperrors.ErrCartEmpty:
		return "cart_empty"
	default:
		return "internal"
	}
}
