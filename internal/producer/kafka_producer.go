package producer

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/service"

	"github.com/segmentio/kafka-go"
)

// OrderProducer publishes order lifecycle events to a single topic,
// keyed by order id so per-order ordering is preserved.
type OrderProducer struct {
	writer *kafka.Writer
}

func NewOrderProducer(brokers []string, topic string) *OrderProducer {
	return &OrderProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (p *OrderProducer) publish(ctx context.Context, key, eventType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *OrderProducer) PublishOrderCreated(ctx context.Context, e service.OrderCreatedEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.created", e)
}

func (p *OrderProducer) PublishOrderPaid(ctx context.Context, e service.OrderPaidEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.paid", e)
}

func (p *OrderProducer) PublishOrderCanceled(ctx context.Context, e service.OrderCanceledEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.canceled", e)
}

func (p *OrderProducer) PublishOrderRefunded(ctx context.Context, e service.OrderRefundedEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.refunded", e)
}

func (p *OrderProducer) Close() error {
	return p.writer.Close()
}
