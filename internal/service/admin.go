package service

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

type RefundResult struct {
	RefundedAmount int64
	RefundStatus   models.RefundStatus
	IsFullRefund   bool
}

type VariantPatch struct {
	Name          *string
	Price         *int64
	DiscountPrice *int64
	Stock         *int64
	ExpiresAt     *time.Time
}

type AdminService interface {
	// RefundOrder applies a partial or full refund to a PAID order.
	// Inventory is restocked only on a full refund with restock set.
	RefundOrder(ctx context.Context, orderID uuid.UUID, amount int64, note string, restock bool) (RefundResult, error)

	// UpdateOrderStatus drives the order lifecycle. A paid, never-refunded
	// order transitioning into CANCELED is restocked exactly once.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus, adminNote *string) (*models.Order, error)

	UpdateVariant(ctx context.Context, variantID uuid.UUID, patch VariantPatch) (*models.Variant, error)
}
