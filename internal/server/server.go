package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/handlers"
)

// Server wires the HTTP routes and owns the listener lifecycle.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	db       *sql.DB
	logger   *zap.Logger
	httpSrv  *http.Server
}

func NewServer(cfg *config.Config, h *handlers.Handlers, db *sql.DB, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		db:       db,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", handlers.NewReadyHandler(s.db))
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		prices := v1.Group("/gold-prices")
		{
			prices.GET("", s.handlers.GetGoldPrices)
			prices.GET("/stored", s.handlers.GetStoredGoldPrices)
			prices.POST("/fetch", s.handlers.FetchGoldPrices)
			prices.POST("/manual", s.handlers.SetManualGoldPrice)
			prices.POST("/auto-update/start", s.handlers.StartAutoUpdate)
			prices.POST("/auto-update/stop", s.handlers.StopAutoUpdate)
			prices.GET("/auto-update/status", s.handlers.AutoUpdateStatus)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", s.handlers.GetCart)
			cart.DELETE("", s.handlers.ClearCart)
			cart.GET("/count", s.handlers.CartCount)
			cart.POST("/items", s.handlers.AddCartItem)
			cart.PUT("/items/:id", s.handlers.UpdateCartItem)
			cart.DELETE("/items/:id", s.handlers.RemoveCartItem)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", s.handlers.CreateOrder)
			orders.GET("", s.handlers.ListOrders)
			orders.GET("/stats", s.handlers.OrderStats)
			orders.GET("/number/:number/track", s.handlers.TrackOrder)
			orders.GET("/:id", s.handlers.GetOrder)
			orders.PUT("/:id/status", s.handlers.UpdateOrderStatus)
			orders.PUT("/:id/payment", s.handlers.UpdateOrderPayment)
		}
	}
}

// Run starts serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Run() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("http server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
