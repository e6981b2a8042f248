package service_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/service"

	"github.com/google/uuid"
)

func TestCartService_AddItem_SnapshotsAndMerges(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	v := seedVariant(t, repo, "Ibuprofen 400", 30000, 0, 10)
	id := userIdentity(uuid.New())

	item := mustAddItem(t, carts, id, v.ID, 2)
	if item.PriceAtAdd != 30000 {
		t.Fatalf("price snapshot expected 30000 got %d", item.PriceAtAdd)
	}

	// catalog price changes must not touch the snapshot
	if err := repo.Variants.UpdateFields(ctx, v.ID, map[string]any{"price": int64(99000)}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	// re-adding the same variant bumps quantity on the same row
	again := mustAddItem(t, carts, id, v.ID, 3)
	if again.ID != item.ID {
		t.Fatalf("expected same cart item row")
	}
	if again.Quantity != 5 {
		t.Fatalf("quantity expected 5 got %d", again.Quantity)
	}
	if again.PriceAtAdd != 30000 {
		t.Fatalf("snapshot must survive re-add, got %d", again.PriceAtAdd)
	}

	cart, err := carts.GetCart(ctx, id)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line got %d", len(cart.Items))
	}
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	v := seedVariant(t, repo, "Amoxicillin 500", 45000, 0, 3)
	id := userIdentity(uuid.New())

	mustAddItem(t, carts, id, v.ID, 2)

	// 2 already in the cart + 2 requested > 3 in stock
	_, err := carts.AddItem(ctx, id, v.ID, 2)
	if !errors.Is(err, service.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	var stockErr *service.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError got %T", err)
	}
	if stockErr.Available != 3 || stockErr.Requested != 4 {
		t.Fatalf("unexpected detail: %+v", stockErr)
	}

	// the failed add must not have mutated the cart
	cart, err := carts.GetCart(ctx, id)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("cart mutated by failed add: %+v", cart.Items)
	}
}

func TestCartService_UpdateQuantity(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	v := seedVariant(t, repo, "Paracetamol 500", 15000, 0, 5)
	id := userIdentity(uuid.New())
	item := mustAddItem(t, carts, id, v.ID, 1)

	upd, err := carts.UpdateQuantity(ctx, id, item.ID, 4)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if upd.Quantity != 4 {
		t.Fatalf("quantity expected 4 got %d", upd.Quantity)
	}

	// beyond live stock
	if _, err := carts.UpdateQuantity(ctx, id, item.ID, 6); !errors.Is(err, service.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	// quantity < 1 removes the row
	removed, err := carts.UpdateQuantity(ctx, id, item.ID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity remove: %v", err)
	}
	if removed != nil {
		t.Fatalf("expected removal, got %+v", removed)
	}
	cart, _ := carts.GetCart(ctx, id)
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be empty")
	}
}

func TestCartService_GetCart_NoCartIsEmptyValue(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)

	cart, err := carts.GetCart(context.Background(), sessionIdentity("never-seen"))
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart == nil || len(cart.Items) != 0 {
		t.Fatalf("expected empty cart value, got %+v", cart)
	}
}

func TestCartService_GetCart_IdentityRequired(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)

	if _, err := carts.GetCart(context.Background(), service.CartIdentity{}); !errors.Is(err, service.ErrCartIdentityRequired) {
		t.Fatalf("expected ErrCartIdentityRequired got %v", err)
	}

	uid := uuid.New()
	sid := "both"
	both := service.CartIdentity{UserID: &uid, SessionID: &sid}
	if _, err := carts.GetCart(context.Background(), both); !errors.Is(err, service.ErrCartIdentityRequired) {
		t.Fatalf("expected ErrCartIdentityRequired for double identity, got %v", err)
	}
}

func TestCartService_MergeGuestCart(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	a := seedVariant(t, repo, "Zinc 15mg", 20000, 0, 100)
	b := seedVariant(t, repo, "Magnesium 250", 35000, 0, 100)

	uid := uuid.New()
	sid := "guest-session"

	// user cart {A:1, B:3}, guest cart {A:2}
	mustAddItem(t, carts, userIdentity(uid), a.ID, 1)
	mustAddItem(t, carts, userIdentity(uid), b.ID, 3)
	mustAddItem(t, carts, sessionIdentity(sid), a.ID, 2)

	if err := carts.MergeGuestCart(ctx, sid, uid); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}

	cart, err := carts.GetCart(ctx, userIdentity(uid))
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	got := map[uuid.UUID]int64{}
	for _, it := range cart.Items {
		got[it.VariantID] = it.Quantity
	}
	if got[a.ID] != 3 || got[b.ID] != 3 {
		t.Fatalf("merge result expected {A:3, B:3} got %v", got)
	}

	// guest cart and its rows must be gone
	guest, err := repo.Carts.GetBySession(ctx, sid)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if guest != nil {
		t.Fatalf("guest cart should have been deleted")
	}
}

func TestCartService_MergeGuestCart_MovesSnapshot(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	v := seedVariant(t, repo, "Omega 3", 80000, 0, 50)

	uid := uuid.New()
	sid := "guest-snap"

	guestItem := mustAddItem(t, carts, sessionIdentity(sid), v.ID, 2)

	if err := repo.Variants.UpdateFields(ctx, v.ID, map[string]any{"price": int64(95000)}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	if err := carts.MergeGuestCart(ctx, sid, uid); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}

	cart, _ := carts.GetCart(ctx, userIdentity(uid))
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(cart.Items))
	}
	if cart.Items[0].PriceAtAdd != guestItem.PriceAtAdd {
		t.Fatalf("moved item must keep its snapshot: %d != %d", cart.Items[0].PriceAtAdd, guestItem.PriceAtAdd)
	}
}

func TestCartService_MergeGuestCart_NoGuestCartIsNoop(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)

	if err := carts.MergeGuestCart(context.Background(), "missing-session", uuid.New()); err != nil {
		t.Fatalf("merge of a missing guest cart must be a no-op, got %v", err)
	}
}

func TestCartService_MergeGuestCart_EmptyGuestCartDeleted(t *testing.T) {
	repo := setupRepo(t)
	carts := service.NewCartService(repo)
	ctx := context.Background()

	v := seedVariant(t, repo, "Calcium D3", 40000, 0, 10)

	sid := "guest-empty"
	item := mustAddItem(t, carts, sessionIdentity(sid), v.ID, 1)
	if err := carts.RemoveItem(ctx, sessionIdentity(sid), item.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	if err := carts.MergeGuestCart(ctx, sid, uuid.New()); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}
	guest, _ := repo.Carts.GetBySession(ctx, sid)
	if guest != nil {
		t.Fatalf("empty guest cart should have been deleted")
	}
}
