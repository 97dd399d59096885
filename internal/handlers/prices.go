package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/service"
)

// priceView shapes a snapshot group as a stable JSON object keyed by tier.
type priceView struct {
	Prices    map[string]tierView `json:"prices"`
	Currency  string              `json:"currency"`
	Source    string              `json:"source"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type tierView struct {
	PricePerGram float64 `json:"price_per_gram"`
	Source       string  `json:"source"`
}

func newPriceView(group models.SnapshotGroup) priceView {
	view := priceView{Prices: make(map[string]tierView, len(group))}
	for karat, snap := range group {
		view.Prices[string(karat)] = tierView{
			PricePerGram: snap.PricePerGram,
			Source:       string(snap.Source),
		}
		// All tiers in a group share currency, source, and timestamp.
		view.Currency = snap.Currency
		view.Source = string(snap.Source)
		view.UpdatedAt = snap.ObservedAt
	}
	return view
}

// GetGoldPrices handles GET /api/v1/gold-prices. Always serves from the
// in-memory snapshot group; never triggers a fetch.
func (h *Handlers) GetGoldPrices(c *gin.Context) {
	c.JSON(http.StatusOK, newPriceView(h.prices.Current()))
}

// GetStoredGoldPrices handles GET /api/v1/gold-prices/stored and returns the
// durable snapshot rows.
func (h *Handlers) GetStoredGoldPrices(c *gin.Context) {
	snapshots, err := h.snapshots.ListStored(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// FetchGoldPrices handles POST /api/v1/gold-prices/fetch and forces an
// immediate refresh cycle.
func (h *Handlers) FetchGoldPrices(c *gin.Context) {
	group, err := h.prices.RefreshOnce(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPriceView(group))
}

// SetManualGoldPrice handles POST /api/v1/gold-prices/manual.
func (h *Handlers) SetManualGoldPrice(c *gin.Context) {
	var req struct {
		Karat        string  `json:"karat"`
		PricePerGram float64 `json:"price_per_gram"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := service.ValidateManualPrice(req.Karat, req.PricePerGram); err != nil {
		handleError(c, err)
		return
	}

	snap, err := h.prices.SetManual(c.Request.Context(), models.Karat(req.Karat), req.PricePerGram)
	if err != nil {
		h.logger.Warn("manual price saved to cache but not persisted", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"snapshot": snap, "persisted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "persisted": true})
}

// StartAutoUpdate handles POST /api/v1/gold-prices/auto-update/start.
func (h *Handlers) StartAutoUpdate(c *gin.Context) {
	interval := h.config.GoldPrice.RefreshInterval
	if raw := c.Query("interval_minutes"); raw != "" {
		minutes, err := parseID(raw)
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval_minutes must be a positive integer"})
			return
		}
		interval = time.Duration(minutes) * time.Minute
	}

	if err := h.prices.Start(interval); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running":  true,
		"interval": interval.String(),
	})
}

// StopAutoUpdate handles POST /api/v1/gold-prices/auto-update/stop.
func (h *Handlers) StopAutoUpdate(c *gin.Context) {
	if err := h.prices.Stop(); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": false})
}

// AutoUpdateStatus handles GET /api/v1/gold-prices/auto-update/status.
func (h *Handlers) AutoUpdateStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.prices.Running()})
}
