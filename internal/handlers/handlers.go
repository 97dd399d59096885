package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/apperrors"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/goldprice"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
)

// PriceService is the slice of the gold price engine the HTTP layer needs.
type PriceService interface {
	Current() models.SnapshotGroup
	RefreshOnce(ctx context.Context) (models.SnapshotGroup, error)
	SetManual(ctx context.Context, karat models.Karat, pricePerGram float64) (models.PriceSnapshot, error)
	Start(interval time.Duration) error
	Stop() error
	Running() bool
}

// SnapshotLister reads the durable price rows for the admin view.
type SnapshotLister interface {
	ListStored(ctx context.Context) ([]models.PriceSnapshot, error)
}

// OrderService is the slice of the order workflow the HTTP layer needs.
type OrderService interface {
	CreateFromCart(ctx context.Context, owner models.CartOwner, params *repository.CreateOrderParams) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, tracking, estimatedDelivery string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, payment models.PaymentStatus) (*models.Order, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// CartService is the slice of the cart service the HTTP layer needs.
type CartService interface {
	GetCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	AddItem(ctx context.Context, owner models.CartOwner, item *models.CartItem) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner models.CartOwner, itemID int64) (*models.Cart, error)
	Clear(ctx context.Context, owner models.CartOwner) error
	Count(ctx context.Context, owner models.CartOwner) (int, error)
}

// Handlers holds all HTTP handlers for the commerce service.
type Handlers struct {
	prices    PriceService
	snapshots SnapshotLister
	orders    OrderService
	carts     CartService
	config    *config.Config
	logger    *zap.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	prices PriceService,
	snapshots SnapshotLister,
	orders OrderService,
	carts CartService,
	cfg *config.Config,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		prices:    prices,
		snapshots: snapshots,
		orders:    orders,
		carts:     carts,
		config:    cfg,
		logger:    logger,
	}
}

// handleError is the single place errors become HTTP responses.
func handleError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var transitionErr *apperrors.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperrors.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
	case errors.Is(err, apperrors.ErrProductInactive):
		c.JSON(http.StatusConflict, gin.H{"error": "product is not available"})
	case errors.Is(err, apperrors.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
	case errors.Is(err, goldprice.ErrAllSourcesExhausted):
		c.JSON(http.StatusBadGateway, gin.H{"error": "all gold price sources unavailable"})
	case errors.Is(err, goldprice.ErrRefreshInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
	case errors.Is(err, goldprice.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "auto update already running"})
	case errors.Is(err, goldprice.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "auto update not running"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ownerFromRequest resolves the cart owner from query parameters. Exactly
// one of user_id and session_id must be present.
func ownerFromRequest(c *gin.Context) (models.CartOwner, error) {
	var owner models.CartOwner
	if raw := c.Query("user_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return owner, apperrors.NewValidationError("user_id", "must be a positive integer")
		}
		owner.UserID = id
	}
	owner.SessionID = c.Query("session_id")

	if !owner.Valid() {
		return owner, apperrors.NewValidationError("owner", "exactly one of user_id and session_id must be set")
	}
	return owner, nil
}
