package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// PaymentEventType labels inbound payment gateway events.
type PaymentEventType string

const (
	PaymentEventCompleted PaymentEventType = "payment.completed"
	PaymentEventFailed    PaymentEventType = "payment.failed"
	PaymentEventRefunded  PaymentEventType = "payment.refunded"
)

// PaymentEvent is the inbound payment gateway message.
type PaymentEvent struct {
	ID        string           `json:"id"`
	Type      PaymentEventType `json:"type"`
	PaymentID string           `json:"payment_id"`
	OrderID   int64            `json:"order_id"`
	Timestamp time.Time        `json:"timestamp"`
}

// PaymentApplier applies a payment outcome to an order. Satisfied by the
// order workflow service.
type PaymentApplier interface {
	UpdatePaymentStatus(ctx context.Context, orderID int64, payment models.PaymentStatus) (*models.Order, error)
}

// KafkaConsumer consumes payment gateway events and applies them to orders.
type KafkaConsumer struct {
	reader  *kafka.Reader
	applier PaymentApplier
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewKafkaConsumer creates a consumer on the payments topic.
func NewKafkaConsumer(cfg config.KafkaConfig, applier PaymentApplier, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		applier: applier,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start consumes until the context is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("payment event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("payment event consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("failed to read message", zap.Error(err))
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer and closes the reader.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("failed to unmarshal payment event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}

	var payment models.PaymentStatus
	switch event.Type {
	case PaymentEventCompleted:
		payment = models.PaymentStatusPaid
	case PaymentEventFailed:
		payment = models.PaymentStatusFailed
	case PaymentEventRefunded:
		payment = models.PaymentStatusRefunded
	default:
		c.logger.Debug("ignoring unknown payment event type",
			zap.String("type", string(event.Type)))
		return
	}

	c.logger.Info("applying payment event",
		zap.String("event_id", event.ID),
		zap.String("payment_id", event.PaymentID),
		zap.Int64("order_id", event.OrderID),
		zap.String("payment_status", string(payment)),
	)

	if _, err := c.applier.UpdatePaymentStatus(ctx, event.OrderID, payment); err != nil {
		c.logger.Error("failed to apply payment event",
			zap.Int64("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
