package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OrderItemEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	LineTotal int64     `json:"line_total"`
}

type OrderCreatedEvent struct {
	OrderID      uuid.UUID        `json:"order_id"`
	UserID       uuid.UUID        `json:"user_id"`
	TrackingCode string           `json:"tracking_code"`
	Items        []OrderItemEvent `json:"items"`
	FinalTotal   int64            `json:"final_total"`
	CreatedAt    time.Time        `json:"created_at"`
}

type OrderPaidEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	Amount  int64     `json:"amount"`
	PaidAt  time.Time `json:"paid_at"`
}

type OrderCanceledEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	Restocked  bool      `json:"restocked"`
	CanceledAt time.Time `json:"canceled_at"`
}

type OrderRefundedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	UserID         uuid.UUID `json:"user_id"`
	Amount         int64     `json:"amount"`
	RefundedAmount int64     `json:"refunded_amount"`
	Full           bool      `json:"full"`
	RefundedAt     time.Time `json:"refunded_at"`
}

// EventBus publishes order lifecycle events. A nil bus disables publishing.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, e OrderPaidEvent) error
	PublishOrderCanceled(ctx context.Context, e OrderCanceledEvent) error
	PublishOrderRefunded(ctx context.Context, e OrderRefundedEvent) error
}
