package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// cartResponse attaches derived totals to the cart body.
func cartResponse(cart *models.Cart) gin.H {
	return gin.H{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"total_price": cart.TotalPrice(),
	}
}

// GetCart handles GET /api/v1/cart.
func (h *Handlers) GetCart(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	cart, err := h.carts.GetCart(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// AddCartItem handles POST /api/v1/cart/items.
func (h *Handlers) AddCartItem(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	var req struct {
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Engraving string `json:"engraving"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item := &models.CartItem{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Engraving: req.Engraving,
	}
	cart, err := h.carts.AddItem(c.Request.Context(), owner, item)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartResponse(cart))
}

// UpdateCartItem handles PUT /api/v1/cart/items/:id. A quantity of zero or
// less removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	itemID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), owner, itemID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	itemID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), owner, itemID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.carts.Clear(c.Request.Context(), owner); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// CartCount handles GET /api/v1/cart/count.
func (h *Handlers) CartCount(c *gin.Context) {
	owner, err := ownerFromRequest(c)
	if err != nil {
		handleError(c, err)
		return
	}

	count, err := h.carts.Count(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
