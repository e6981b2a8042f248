package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type adminService struct {
	repo   *repository.Repository
	ledger Ledger
	events EventBus
	now    func() time.Time
}

func NewAdminService(repo *repository.Repository, events EventBus) AdminService {
	return &adminService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// allowedTransitions is the admin lifecycle. DELIVERED and CANCELED are
// terminal; customer cancellation of PENDING orders goes through
// OrderService, not here.
var allowedTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusPending:   {models.OrderStatusPaid: true, models.OrderStatusCanceled: true},
	models.OrderStatusPaid:      {models.OrderStatusShipped: true, models.OrderStatusCanceled: true},
	models.OrderStatusShipped:   {models.OrderStatusDelivered: true, models.OrderStatusCanceled: true},
	models.OrderStatusDelivered: {},
	models.OrderStatusCanceled:  {},
}

func (s *adminService) RefundOrder(ctx context.Context, orderID uuid.UUID, amount int64, note string, restock bool) (RefundResult, error) {
	var (
		result RefundResult
		ord    *models.Order
	)
	now := s.now()

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		var err error
		ord, err = tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if ord == nil {
			return ErrOrderNotFound
		}
		if ord.Status != models.OrderStatusPaid {
			return ErrOrderNotPaid
		}

		refundable := ord.FinalTotal - ord.RefundedAmount
		if amount <= 0 || amount > refundable {
			return ErrInvalidRefundAmount
		}

		newAmount := ord.RefundedAmount + amount
		full := newAmount >= ord.FinalTotal

		// partial refunds never restock: paying part of the money back does
		// not mean the goods came back
		if restock && full {
			for i := range ord.Items {
				it := &ord.Items[i]
				if err := s.ledger.Restock(ctx, tx, it.VariantID, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		fields := map[string]any{
			"refunded_amount": newAmount,
			"refund_note":     note,
			"refunded_at":     now,
		}
		if full {
			fields["refund_status"] = models.RefundStatusRefunded
			fields["status"] = models.OrderStatusCanceled
		} else {
			fields["refund_status"] = models.RefundStatusPartially
		}
		if err := tx.Orders.UpdateFields(ctx, orderID, fields); err != nil {
			return err
		}

		if full {
			if err := tx.Payments.UpdateStatusByOrder(ctx, orderID, models.PaymentStatusRefunded); err != nil {
				return err
			}
		}

		result = RefundResult{
			RefundedAmount: newAmount,
			RefundStatus:   models.RefundStatusPartially,
			IsFullRefund:   full,
		}
		if full {
			result.RefundStatus = models.RefundStatusRefunded
		}
		return nil
	})
	if err != nil {
		return RefundResult{}, err
	}

	if s.events != nil {
		_ = s.events.PublishOrderRefunded(ctx, OrderRefundedEvent{
			OrderID:        ord.ID,
			UserID:         ord.UserID,
			Amount:         amount,
			RefundedAmount: result.RefundedAmount,
			Full:           result.IsFullRefund,
			RefundedAt:     now,
		})
	}

	return result, nil
}

func (s *adminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus, adminNote *string) (*models.Order, error) {
	ord, err := s.repo.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	if newStatus == ord.Status {
		// repeating the current status is a no-op, which also keeps a
		// double cancel from restocking twice
		return ord, nil
	}
	if !allowedTransitions[ord.Status][newStatus] {
		return nil, &IllegalTransitionError{From: ord.Status, To: newStatus}
	}

	// restock once: only a paid, not-yet-canceled, never-refunded order
	// still holds sold inventory
	shouldRestock := newStatus == models.OrderStatusCanceled &&
		ord.Status != models.OrderStatusCanceled &&
		ord.PaidAt != nil &&
		ord.RefundStatus == models.RefundStatusNone

	now := s.now()
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		ok, err := tx.Orders.UpdateStatusIf(ctx, orderID, ord.Status, newStatus)
		if err != nil {
			return err
		}
		if !ok {
			// someone transitioned the order between our read and this write
			return &IllegalTransitionError{From: ord.Status, To: newStatus}
		}

		if shouldRestock {
			for i := range ord.Items {
				it := &ord.Items[i]
				if err := s.ledger.Restock(ctx, tx, it.VariantID, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		fields := map[string]any{}
		if adminNote != nil {
			fields["admin_note"] = *adminNote
		}

		switch newStatus {
		case models.OrderStatusPaid:
			if ord.PaidAt == nil {
				fields["paid_at"] = now
			}
		case models.OrderStatusShipped:
			if err := tx.Shipments.UpdateStatusByOrder(ctx, orderID, models.ShipmentStatusInTransit); err != nil {
				return err
			}
		case models.OrderStatusDelivered:
			fields["delivered_at"] = now
			if err := tx.Shipments.UpdateStatusByOrder(ctx, orderID, models.ShipmentStatusDelivered); err != nil {
				return err
			}
		case models.OrderStatusCanceled:
			if err := tx.Shipments.UpdateStatusByOrder(ctx, orderID, models.ShipmentStatusCanceled); err != nil {
				return err
			}
		}

		if len(fields) == 0 {
			return nil
		}
		return tx.Orders.UpdateFields(ctx, orderID, fields)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil && newStatus == models.OrderStatusCanceled {
		_ = s.events.PublishOrderCanceled(ctx, OrderCanceledEvent{
			OrderID:    ord.ID,
			UserID:     ord.UserID,
			Restocked:  shouldRestock,
			CanceledAt: now,
		})
	}

	return s.repo.Orders.GetByID(ctx, orderID)
}

func (s *adminService) UpdateVariant(ctx context.Context, variantID uuid.UUID, patch VariantPatch) (*models.Variant, error) {
	v, err := s.repo.Variants.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVariantNotFound
	}

	fields := map[string]any{}

	price := v.Price
	discount := v.DiscountPrice
	if patch.Price != nil {
		price = *patch.Price
		fields["price"] = price
	}
	if patch.DiscountPrice != nil {
		discount = *patch.DiscountPrice
		fields["discount_price"] = discount
	}
	if discount > 0 && discount > price {
		return nil, ErrDiscountExceedsPrice
	}

	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, ErrQuantityInvalid
		}
		fields["stock"] = *patch.Stock
	}
	if patch.ExpiresAt != nil {
		fields["expires_at"] = *patch.ExpiresAt
	}

	if len(fields) == 0 {
		return v, nil
	}
	fields["updated_at"] = s.now()

	if err := s.repo.Variants.UpdateFields(ctx, variantID, fields); err != nil {
		return nil, err
	}
	return s.repo.Variants.GetByID(ctx, variantID)
}
