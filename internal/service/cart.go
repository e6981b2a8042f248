package service

import (
	"context"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// CartIdentity names the cart owner: exactly one of UserID / SessionID.
type CartIdentity struct {
	UserID    *uuid.UUID
	SessionID *string
}

func (id CartIdentity) valid() bool {
	return (id.UserID != nil) != (id.SessionID != nil)
}

type CartService interface {
	// GetCart never fails on a missing cart; it returns an empty cart value.
	GetCart(ctx context.Context, id CartIdentity) (*models.Cart, error)
	AddItem(ctx context.Context, id CartIdentity, variantID uuid.UUID, quantity int64) (*models.CartItem, error)
	// UpdateQuantity with quantity < 1 removes the item and returns (nil, nil).
	UpdateQuantity(ctx context.Context, id CartIdentity, itemID uuid.UUID, quantity int64) (*models.CartItem, error)
	RemoveItem(ctx context.Context, id CartIdentity, itemID uuid.UUID) error

	// MergeGuestCart folds the guest cart for sessionID into the user's cart.
	// Callers on the authentication path log a failure and proceed; a broken
	// guest cart must never block a login.
	MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error
}
