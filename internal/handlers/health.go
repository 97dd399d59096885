package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "commerce-service",
	})
}

// NewReadyHandler returns a GET /ready handler that pings the database.
// Prices always serve from memory, so only the order path gates readiness.
func NewReadyHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"service": "commerce-service",
		})
	}
}
