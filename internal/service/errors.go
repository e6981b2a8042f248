package service

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
)

// Business errors. Transport maps these to 4xx with a machine-readable code;
// everything else is an opaque 500.
var (
	ErrCartIdentityRequired = errors.New("exactly one of user id or session id is required")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrQuantityInvalid      = errors.New("quantity must be > 0")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrBlockedProduct       = errors.New("product is not available for purchase")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPending      = errors.New("order is not pending")
	ErrOrderNotPaid         = errors.New("order is not paid")
	ErrInvalidRefundAmount  = errors.New("invalid refund amount")
	ErrIllegalTransition    = errors.New("illegal order status transition")
	ErrDiscountExceedsPrice = errors.New("discount price must not exceed price")
	ErrForbidden            = errors.New("forbidden")
)

// InsufficientStockError names the product and what is actually left so the
// caller can render a useful message. errors.Is matches ErrInsufficientStock.
type InsufficientStockError struct {
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type BlockedProductError struct {
	Names []string
}

func (e *BlockedProductError) Error() string {
	return "products not available for purchase: " + strings.Join(e.Names, ", ")
}

func (e *BlockedProductError) Is(target error) bool { return target == ErrBlockedProduct }

type IllegalTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition %s -> %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }
