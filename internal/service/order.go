package service

import (
	"context"

	"storefront/internal/models"

	"github.com/google/uuid"
)

type ListFilter struct {
	UserID *uuid.UUID
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type OrderService interface {
	// CreateOrder converts the user's cart into a PENDING order in one
	// transaction. Stock is only soft-checked here; the decrement happens
	// at payment verification.
	CreateOrder(ctx context.Context, userID, addressID uuid.UUID, shippingFee int64) (*models.Order, error)

	// VerifyPayment confirms the (mocked) gateway callback: hard stock
	// check + decrement, payment and order move to PAID.
	VerifyPayment(ctx context.Context, orderID uuid.UUID, refID string) (*models.Order, error)

	// CancelOrder is the customer-facing cancel, allowed only while PENDING.
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)

	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
}
