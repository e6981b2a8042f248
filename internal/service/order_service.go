package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type orderService struct {
	repo   *repository.Repository
	ledger Ledger
	events EventBus
	now    func() time.Time
}

func NewOrderService(repo *repository.Repository, events EventBus) OrderService {
	return &orderService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// trackingCode builds the human-facing order code from time and user id.
// Display-only: uniqueness is good enough for support lookups, the primary
// key is still the uuid.
func trackingCode(now time.Time, userID uuid.UUID) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("060102150405"), strings.ToUpper(userID.String()[:8]))
}

func (s *orderService) CreateOrder(ctx context.Context, userID, addressID uuid.UUID, shippingFee int64) (*models.Order, error) {
	cart, err := s.repo.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrEmptyCart
	}

	full, err := s.repo.Carts.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if full == nil || len(full.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var blocked []string
	for i := range full.Items {
		it := &full.Items[i]
		if it.Variant == nil {
			return nil, ErrVariantNotFound
		}
		if it.Variant.Product != nil && !it.Variant.Product.IsActive {
			blocked = append(blocked, it.Variant.Product.Name)
		}
	}
	if len(blocked) > 0 {
		return nil, &BlockedProductError{Names: blocked}
	}

	// soft check only: stock is not reserved for an unpaid order, the hard
	// check happens again in VerifyPayment
	for i := range full.Items {
		it := &full.Items[i]
		if it.Quantity > it.Variant.Stock {
			return nil, &InsufficientStockError{
				ProductName: productName(it.Variant),
				Requested:   it.Quantity,
				Available:   it.Variant.Stock,
			}
		}
	}

	var subtotal, discountTotal int64
	for i := range full.Items {
		it := &full.Items[i]
		subtotal += it.Variant.Price * it.Quantity
		discountTotal += (it.Variant.Price - it.Variant.EffectivePrice()) * it.Quantity
	}
	finalTotal := subtotal + shippingFee - discountTotal

	now := s.now()
	order := &models.Order{
		UserID:        userID,
		AddressID:     addressID,
		TrackingCode:  trackingCode(now, userID),
		Status:        models.OrderStatusPending,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		ShippingFee:   shippingFee,
		FinalTotal:    finalTotal,
		RefundStatus:  models.RefundStatusNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var itemsDB []models.OrderItem
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		itemsDB = make([]models.OrderItem, 0, len(full.Items))
		for i := range full.Items {
			it := &full.Items[i]
			unit := it.Variant.EffectivePrice()
			itemsDB = append(itemsDB, models.OrderItem{
				OrderID:    order.ID,
				ProductID:  it.Variant.ProductID,
				VariantID:  it.VariantID,
				Quantity:   it.Quantity,
				UnitPrice:  unit,
				TotalPrice: unit * it.Quantity,
				CreatedAt:  now,
			})
		}
		if err := tx.OrderItems.BulkCreate(ctx, itemsDB); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		// the cart is consumed by the order
		if _, err := tx.CartItems.DeleteByCartID(ctx, full.ID); err != nil {
			return err
		}
		if err := tx.Carts.Delete(ctx, full.ID); err != nil {
			return err
		}

		if err := tx.Shipments.Create(ctx, &models.Shipment{
			OrderID: order.ID,
			Status:  models.ShipmentStatusAwaitingPayment,
		}); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		return tx.Payments.Create(ctx, &models.Payment{
			OrderID: order.ID,
			Status:  models.PaymentStatusInitiated,
			Amount:  finalTotal,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		evItems := make([]OrderItemEvent, 0, len(itemsDB))
		for _, it := range itemsDB {
			evItems = append(evItems, OrderItemEvent{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				LineTotal: it.TotalPrice,
			})
		}
		_ = s.events.PublishOrderCreated(ctx, OrderCreatedEvent{
			OrderID:      order.ID,
			UserID:       order.UserID,
			TrackingCode: order.TrackingCode,
			Items:        evItems,
			FinalTotal:   order.FinalTotal,
			CreatedAt:    order.CreatedAt,
		})
	}

	return s.repo.Orders.GetByID(ctx, order.ID)
}

func (s *orderService) VerifyPayment(ctx context.Context, orderID uuid.UUID, refID string) (*models.Order, error) {
	ord, err := s.repo.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		// conditional claim so two concurrent callbacks cannot both sell
		ok, err := tx.Orders.UpdateStatusIf(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderNotPending
		}

		// hard check + decrement: stock may have vanished between cart
		// validation and the gateway callback
		for i := range ord.Items {
			it := &ord.Items[i]
			if err := s.ledger.Sell(ctx, tx, it.VariantID, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					v, verr := tx.Variants.GetByID(ctx, it.VariantID)
					if verr == nil && v != nil {
						return &InsufficientStockError{
							ProductName: productName(v),
							Requested:   it.Quantity,
							Available:   v.Stock,
						}
					}
				}
				return err
			}
		}

		if err := tx.Orders.UpdateFields(ctx, orderID, map[string]any{"paid_at": now}); err != nil {
			return err
		}

		pay, err := tx.Payments.GetLatestByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if pay != nil {
			if err := tx.Payments.UpdateFields(ctx, pay.ID, map[string]any{
				"status": models.PaymentStatusPaid,
				"ref_id": refID,
			}); err != nil {
				return err
			}
		}
		return tx.Shipments.UpdateStatusByOrder(ctx, orderID, models.ShipmentStatusPreparing)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishOrderPaid(ctx, OrderPaidEvent{
			OrderID: ord.ID,
			UserID:  ord.UserID,
			Amount:  ord.FinalTotal,
			PaidAt:  now,
		})
	}

	return s.repo.Orders.GetByID(ctx, orderID)
}

func (s *orderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	ord, err := s.repo.Orders.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	// customers can only cancel unpaid orders; anything later needs the
	// admin path because it has to restock
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		ok, err := tx.Orders.UpdateStatusIf(ctx, orderID, models.OrderStatusPending, models.OrderStatusCanceled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderNotPending
		}
		if err := tx.Payments.UpdateStatusByOrder(ctx, orderID, models.PaymentStatusFailed); err != nil {
			return err
		}
		return tx.Shipments.UpdateStatusByOrder(ctx, orderID, models.ShipmentStatusCanceled)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishOrderCanceled(ctx, OrderCanceledEvent{
			OrderID:    ord.ID,
			UserID:     ord.UserID,
			Restocked:  false,
			CanceledAt: s.now(),
		})
	}

	return s.repo.Orders.GetByID(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	ord, err := s.repo.Orders.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}

func (s *orderService) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	ordersPtr, total, err := s.repo.Orders.List(ctx, repository.OrderListFilter{
		UserID: f.UserID,
		Status: f.Status,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
	if err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, len(ordersPtr))
	for i, o := range ordersPtr {
		orders[i] = *o
	}
	return orders, total, nil
}
