package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/service"
)

type createOrderRequest struct {
	PaymentMethod  string              `json:"payment_method"`
	ShippingCost   float64             `json:"shipping_cost"`
	TaxAmount      float64             `json:"tax_amount"`
	DiscountAmount float64             `json:"discount_amount"`
	Shipping       models.ShippingInfo `json:"shipping"`
}

// CreateOrder handles POST /api/v1/orders. The owner's cart becomes the
// order; the cart is drained on success.
func (h *Handlers) CreateOrder(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := &repository.CreateOrderParams{
		PaymentMethod:  req.PaymentMethod,
		ShippingCost:   req.ShippingCost,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Shipping:       req.Shipping,
	}
	if err := service.ValidateCreateOrderParams(params); err != nil {
		handleError(c, err)
		return
	}

	order, err := h.orders.CreateFromCart(c.Request.Context(), owner, params)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders.
func (h *Handlers) ListOrders(c *gin.Context) {
	filter := &models.OrderListFilter{}

	if raw := c.Query("user_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
			return
		}
		filter.UserID = id
	}
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}
		filter.Status = &status
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		Status            string `json:"status"`
		TrackingNumber    string `json:"tracking_number"`
		EstimatedDelivery string `json:"estimated_delivery"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := service.ValidateStatusRequest(req.Status, req.EstimatedDelivery); err != nil {
		handleError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id,
		models.OrderStatus(req.Status), req.TrackingNumber, req.EstimatedDelivery)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderPayment handles PUT /api/v1/orders/:id/payment.
func (h *Handlers) UpdateOrderPayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := service.ValidatePaymentRequest(req.PaymentStatus); err != nil {
		handleError(c, err)
		return
	}

	order, err := h.orders.UpdatePaymentStatus(c.Request.Context(), id,
		models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// TrackOrder handles GET /api/v1/orders/number/:number/track. It exposes the
// public tracking view without requiring an order id.
func (h *Handlers) TrackOrder(c *gin.Context) {
	order, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number":       order.OrderNumber,
		"status":             order.Status,
		"payment_status":     order.PaymentStatus,
		"tracking_number":    order.TrackingNumber,
		"estimated_delivery": order.EstimatedDelivery,
		"delivered_at":       order.DeliveredAt,
		"created_at":         order.CreatedAt,
	})
}

// OrderStats handles GET /api/v1/orders/stats.
func (h *Handlers) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
