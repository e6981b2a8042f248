package service

import (
	"context"
	"fmt"

	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Ledger moves Variant.stock and Product.sold_count in lockstep: one unit
// sold means stock -1 / sold_count +1, one unit restocked the reverse.
// It only ever runs on a tx-bound Repository, so a failed move rolls the
// whole caller transaction back and neither counter drifts.
type Ledger struct{}

// Sell decrements stock and increments sold_count. The decrement is a
// conditional single-statement UPDATE, so concurrent sells on the same
// variant serialize on the row lock and stock never goes below zero.
func (Ledger) Sell(ctx context.Context, tx *repository.Repository, variantID, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return ErrQuantityInvalid
	}

	ok, err := tx.Variants.SellStock(ctx, variantID, qty)
	if err != nil {
		return fmt.Errorf("sell stock: %w", err)
	}
	if !ok {
		return ErrInsufficientStock
	}

	ok, err = tx.Products.AdjustSoldCount(ctx, productID, qty)
	if err != nil {
		return fmt.Errorf("adjust sold count: %w", err)
	}
	if !ok {
		return fmt.Errorf("product %s not found for sold count update", productID)
	}
	return nil
}

// Restock is the inverse of Sell. sold_count is floored at zero by the
// repository guard; hitting the floor means the counters were already out
// of lockstep and the transaction must not proceed.
func (Ledger) Restock(ctx context.Context, tx *repository.Repository, variantID, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return ErrQuantityInvalid
	}

	ok, err := tx.Variants.RestockStock(ctx, variantID, qty)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	if !ok {
		return ErrVariantNotFound
	}

	ok, err = tx.Products.AdjustSoldCount(ctx, productID, -qty)
	if err != nil {
		return fmt.Errorf("adjust sold count: %w", err)
	}
	if !ok {
		return fmt.Errorf("sold count underflow for product %s", productID)
	}
	return nil
}
