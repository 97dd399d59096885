package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/events"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/goldprice"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/handlers"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/repository"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/server"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", zap.Error(err))
	}
	cancelPing()

	// Repositories.
	ledger := repository.NewInventoryLedger(logger)
	orderRepo := repository.NewPostgresOrderRepository(db, ledger, logger)
	productRepo := repository.NewPostgresProductRepository(db, logger)
	cartRepo := repository.NewPostgresCartRepository(db, logger)
	snapshotStore := repository.NewPostgresSnapshotStore(db, logger)

	var orderCache repository.OrderCache
	var redisCache *repository.RedisOrderCache
	if cfg.Features.EnableOrderCaching {
		redisCache = repository.NewRedisOrderCache(cfg.Redis, logger)
		orderCache = redisCache
	}

	// Events.
	var publisher *events.KafkaPublisher
	var orderPublisher events.OrderEventPublisher
	var pricePublisher goldprice.PricePublisher
	if cfg.Features.EnableOrderEvents {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
		orderPublisher = publisher
		pricePublisher = publisher
	}

	// Gold price engine.
	sources := []goldprice.Source{
		goldprice.NewHTTPSource("primary", cfg.GoldPrice.PrimaryURL, cfg.GoldPrice.FetchTimeout, logger),
		goldprice.NewHTTPSource("fallback", cfg.GoldPrice.FallbackURL, cfg.GoldPrice.FetchTimeout, logger),
	}
	converter := goldprice.Converter{
		USDRate:  cfg.GoldPrice.USDRate,
		Currency: cfg.GoldPrice.Currency,
	}
	defaults := goldprice.Defaults{
		Currency: cfg.GoldPrice.Currency,
		Prices: map[models.Karat]float64{
			models.Karat18: cfg.GoldPrice.Default18k,
			models.Karat21: cfg.GoldPrice.Default21k,
			models.Karat24: cfg.GoldPrice.Default24k,
		},
	}
	engine := goldprice.NewEngine(sources, converter, defaults, snapshotStore, pricePublisher, logger)

	// Services.
	orderWorkflow := service.NewOrderWorkflow(orderRepo, cartRepo, orderCache, orderPublisher, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)

	// Payment gateway consumer.
	var consumer *events.KafkaConsumer
	if cfg.Features.EnableOrderEvents {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderWorkflow, logger)
		go func() {
			if err := consumer.Start(context.Background()); err != nil && err != context.Canceled {
				logger.Error("payment consumer exited", zap.Error(err))
			}
		}()
	}

	if cfg.Features.EnableAutoRefresh {
		if err := engine.Start(cfg.GoldPrice.RefreshInterval); err != nil {
			logger.Error("failed to start auto refresh", zap.Error(err))
		}
	}

	h := handlers.NewHandlers(engine, snapshotStore, orderWorkflow, cartService, cfg, logger)
	srv := server.NewServer(cfg, h, db, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if engine.Running() {
		if err := engine.Stop(); err != nil {
			logger.Error("failed to stop auto refresh", zap.Error(err))
		}
	}
	if consumer != nil {
		consumer.Stop()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", zap.Error(err))
		}
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Error("failed to close order cache", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}

	logger.Info("commerce service stopped")
}
