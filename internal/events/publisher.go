package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/config"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/goldprice"
	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// EventType labels the kind of event carried in an envelope.
type EventType string

const (
	EventTypeOrderCreated        EventType = "order.created"
	EventTypeOrderStatusChanged  EventType = "order.status_changed"
	EventTypeOrderPaymentChanged EventType = "order.payment_changed"
	EventTypeGoldPricesUpdated   EventType = "gold_price.updated"
)

// Envelope wraps every published event.
type Envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderEventPublisher announces order lifecycle changes downstream.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	PublishOrderPaymentChanged(ctx context.Context, order *models.Order, previous models.PaymentStatus) error
}

// Ensure KafkaPublisher satisfies both consumer-side interfaces.
var (
	_ OrderEventPublisher      = (*KafkaPublisher)(nil)
	_ goldprice.PricePublisher = (*KafkaPublisher)(nil)
)

// KafkaPublisher publishes order and gold price events to Kafka. Order
// events are keyed by order id so one order's history stays in partition
// order; price events are keyed by a constant.
type KafkaPublisher struct {
	orderWriter *kafka.Writer
	priceWriter *kafka.Writer
	logger      *zap.Logger
}

// NewKafkaPublisher creates a Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return &KafkaPublisher{
		orderWriter: newWriter(cfg.OrdersTopic),
		priceWriter: newWriter(cfg.PricesTopic),
		logger:      logger,
	}
}

// PublishOrderCreated publishes the full order after checkout commits.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.orderWriter, EventTypeOrderCreated, orderKey(order), data)
}

// PublishOrderStatusChanged publishes a status transition.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	payload := struct {
		Order          *models.Order      `json:"order"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{order, previous, order.Status}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.orderWriter, EventTypeOrderStatusChanged, orderKey(order), data)
}

// PublishOrderPaymentChanged publishes a payment state transition.
func (p *KafkaPublisher) PublishOrderPaymentChanged(ctx context.Context, order *models.Order, previous models.PaymentStatus) error {
	payload := struct {
		Order           *models.Order        `json:"order"`
		PreviousPayment models.PaymentStatus `json:"previous_payment_status"`
		NewPayment      models.PaymentStatus `json:"new_payment_status"`
	}{order, previous, order.PaymentStatus}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.orderWriter, EventTypeOrderPaymentChanged, orderKey(order), data)
}

// PublishPricesUpdated publishes the full refreshed tier group.
func (p *KafkaPublisher) PublishPricesUpdated(ctx context.Context, group models.SnapshotGroup) error {
	data, err := json.Marshal(group)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.priceWriter, EventTypeGoldPricesUpdated, "gold-prices", data)
}

func (p *KafkaPublisher) publish(ctx context.Context, writer *kafka.Writer, eventType EventType, key string, data []byte) error {
	event := Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("key", key),
	)
	return nil
}

// Close closes both writers.
func (p *KafkaPublisher) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.priceWriter.Close()
}

func orderKey(order *models.Order) string {
	return strconv.FormatInt(order.ID, 10)
}
