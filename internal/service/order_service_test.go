package service_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/google/uuid"
)

func TestOrderService_CreateOrder_Totals(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	// two lines, 100,000 total, no discount
	a := seedVariant(t, repo, "Cough syrup", 40000, 0, 10)
	b := seedVariant(t, repo, "Nasal spray", 30000, 0, 10)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), a.ID, 1)
	mustAddItem(t, carts, userIdentity(uid), b.ID, 2)

	ord, err := orders.CreateOrder(ctx, uid, uuid.New(), 10000)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if ord.Status != models.OrderStatusPending {
		t.Fatalf("status expected PENDING got %s", ord.Status)
	}
	if ord.Subtotal != 100000 || ord.DiscountTotal != 0 || ord.FinalTotal != 110000 {
		t.Fatalf("totals mismatch: subtotal=%d discount=%d final=%d", ord.Subtotal, ord.DiscountTotal, ord.FinalTotal)
	}
	if len(ord.Items) != 2 {
		t.Fatalf("expected 2 snapshots got %d", len(ord.Items))
	}
	if ord.TrackingCode == "" {
		t.Fatalf("tracking code missing")
	}
	if ord.Shipment == nil || ord.Shipment.Status != models.ShipmentStatusAwaitingPayment {
		t.Fatalf("shipment mismatch: %+v", ord.Shipment)
	}
	if len(ord.Payments) != 1 || ord.Payments[0].Status != models.PaymentStatusInitiated || ord.Payments[0].Amount != 110000 {
		t.Fatalf("payment mismatch: %+v", ord.Payments)
	}

	// order creation consumes the cart
	cart, err := carts.GetCart(ctx, userIdentity(uid))
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be empty after order")
	}

	// stock is only soft-checked at this stage, nothing decremented yet
	if got := variantStock(t, repo, a.ID); got != 10 {
		t.Fatalf("stock must be untouched before payment, got %d", got)
	}
}

func TestOrderService_CreateOrder_Discounts(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)

	// price 50,000 discounted to 40,000, two units
	v := seedVariant(t, repo, "Multivitamin", 50000, 40000, 10)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 2)

	ord, err := orders.CreateOrder(context.Background(), uid, uuid.New(), 0)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if ord.Subtotal != 100000 || ord.DiscountTotal != 20000 || ord.FinalTotal != 80000 {
		t.Fatalf("totals mismatch: %+v", ord)
	}
	// snapshots carry the effective price
	if ord.Items[0].UnitPrice != 40000 || ord.Items[0].TotalPrice != 80000 {
		t.Fatalf("snapshot price mismatch: %+v", ord.Items[0])
	}
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	repo := setupRepo(t)
	orders := service.NewOrderService(repo, nil)

	_, err := orders.CreateOrder(context.Background(), uuid.New(), uuid.New(), 0)
	if !errors.Is(err, service.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart got %v", err)
	}
}

func TestOrderService_CreateOrder_BlockedProduct(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	v := seedVariant(t, repo, "Sleeping pills", 60000, 0, 10)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 1)

	// deactivated after it went into the cart
	if err := repo.Products.UpdateFields(ctx, v.ProductID, map[string]any{"is_active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := orders.CreateOrder(ctx, uid, uuid.New(), 0)
	if !errors.Is(err, service.ErrBlockedProduct) {
		t.Fatalf("expected ErrBlockedProduct got %v", err)
	}
	var blocked *service.BlockedProductError
	if !errors.As(err, &blocked) || len(blocked.Names) != 1 || blocked.Names[0] != "Sleeping pills" {
		t.Fatalf("blocked products not named: %v", err)
	}

	// the failing transaction must not have consumed the cart
	cart, _ := carts.GetCart(ctx, userIdentity(uid))
	if len(cart.Items) != 1 {
		t.Fatalf("cart must survive a failed order")
	}
}

func TestOrderService_VerifyPayment_SellsStock(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	v := seedVariant(t, repo, "Insulin pen", 250000, 0, 5)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 2)

	ord, err := orders.CreateOrder(ctx, uid, uuid.New(), 0)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	paid, err := orders.VerifyPayment(ctx, ord.ID, "gw-ref-1")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if paid.Status != models.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("order should be PAID with paid_at set: %+v", paid)
	}
	if paid.Payments[0].Status != models.PaymentStatusPaid {
		t.Fatalf("payment should be PAID: %+v", paid.Payments[0])
	}
	if paid.Shipment.Status != models.ShipmentStatusPreparing {
		t.Fatalf("shipment should be PREPARING: %+v", paid.Shipment)
	}

	// stock -2, sold +2, in lockstep
	if got := variantStock(t, repo, v.ID); got != 3 {
		t.Fatalf("stock expected 3 got %d", got)
	}
	if got := productSold(t, repo, v.ProductID); got != 2 {
		t.Fatalf("sold count expected 2 got %d", got)
	}

	// a second callback must not sell again
	if _, err := orders.VerifyPayment(ctx, ord.ID, "gw-ref-1"); !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending got %v", err)
	}
	if got := variantStock(t, repo, v.ID); got != 3 {
		t.Fatalf("double verify must not double sell, stock %d", got)
	}
}

func TestOrderService_VerifyPayment_StockVanished(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	v := seedVariant(t, repo, "Thermometer", 120000, 0, 2)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 2)

	ord, err := orders.CreateOrder(ctx, uid, uuid.New(), 0)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// concurrent purchase drained the stock between cart and payment
	if err := repo.Variants.SetStock(ctx, v.ID, 1); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err = orders.VerifyPayment(ctx, ord.ID, "gw-ref-2")
	if !errors.Is(err, service.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	// the whole transaction rolled back: still PENDING, stock untouched
	after, _ := repo.Orders.GetByID(ctx, ord.ID)
	if after.Status != models.OrderStatusPending {
		t.Fatalf("order must stay PENDING on failed payment, got %s", after.Status)
	}
	if got := variantStock(t, repo, v.ID); got != 1 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
}

func TestOrderService_CancelOrder_OnlyPending(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	v := seedVariant(t, repo, "Band-aid", 10000, 0, 20)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 1)

	ord, err := orders.CreateOrder(ctx, uid, uuid.New(), 0)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	canceled, err := orders.CancelOrder(ctx, ord.ID, uid)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if canceled.Status != models.OrderStatusCanceled {
		t.Fatalf("status expected CANCELED got %s", canceled.Status)
	}
	if canceled.Payments[0].Status != models.PaymentStatusFailed {
		t.Fatalf("payment should be FAILED: %+v", canceled.Payments[0])
	}
	if canceled.Shipment.Status != models.ShipmentStatusCanceled {
		t.Fatalf("shipment should be CANCELED: %+v", canceled.Shipment)
	}

	// already canceled: not PENDING anymore
	if _, err := orders.CancelOrder(ctx, ord.ID, uid); !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending got %v", err)
	}
}

func TestOrderService_CancelOrder_ForeignOrder(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	orders := service.NewOrderService(repo, nil)
	ctx := context.Background()

	v := seedVariant(t, repo, "Eye drops", 25000, 0, 20)

	uid := uuid.New()
	mustAddItem(t, carts, userIdentity(uid), v.ID, 1)
	ord, err := orders.CreateOrder(ctx, uid, uuid.New(), 0)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := orders.CancelOrder(ctx, ord.ID, uuid.New()); !errors.Is(err, service.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for another user's order, got %v", err)
	}
}
