package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

const (
	orderKeyPrefix       = "order:"
	orderNumberKeyPrefix = "order_number:"
	defaultCacheTTL      = 5 * time.Minute
)

var _ OrderCache = (*RedisOrderCache)(nil)

// RedisOrderCache implements OrderCache using Redis. An order is cached
// under both its id and its public order number; a cache miss is (nil, nil).
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisOrderCache creates a Redis-backed order cache.
func NewRedisOrderCache(cfg config.RedisConfig, logger *zap.Logger) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves an order by id. A miss returns (nil, nil).
func (c *RedisOrderCache) Get(ctx context.Context, id int64) (*models.Order, error) {
	return c.get(ctx, orderKeyPrefix+strconv.FormatInt(id, 10))
}

// GetByNumber retrieves an order by its public number. A miss returns (nil, nil).
func (c *RedisOrderCache) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return c.get(ctx, orderNumberKeyPrefix+orderNumber)
}

func (c *RedisOrderCache) get(ctx context.Context, key string) (*models.Order, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Set caches an order under both its keys.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, orderKeyPrefix+strconv.FormatInt(order.ID, 10), data, c.ttl)
	pipe.Set(ctx, orderNumberKeyPrefix+order.OrderNumber, data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("cache set failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Delete evicts both keys for an order. Callers evict on any write so the
// next read repopulates from Postgres.
func (c *RedisOrderCache) Delete(ctx context.Context, order *models.Order) error {
	err := c.client.Del(ctx,
		orderKeyPrefix+strconv.FormatInt(order.ID, 10),
		orderNumberKeyPrefix+order.OrderNumber,
	).Err()
	if err != nil {
		c.logger.Error("cache delete failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
	return err
}

// Close releases the underlying client.
func (c *RedisOrderCache) Close() error {
	return c.client.Close()
}
