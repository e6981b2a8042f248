package service_test

import (
	"context"
	"testing"

	"storefront/internal/migrate"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	if err := migrate.MigrateStorefrontDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.New(db)
}

// seedVariant creates an active product with one variant and returns the
// variant with its product preloaded.
func seedVariant(t *testing.T, repo *repository.Repository, name string, price, discount, stock int64) *models.Variant {
	t.Helper()
	return seedVariantActive(t, repo, name, price, discount, stock, true)
}

func seedVariantActive(t *testing.T, repo *repository.Repository, name string, price, discount, stock int64, active bool) *models.Variant {
	t.Helper()
	ctx := context.Background()

	p := &models.Product{Name: name, IsActive: active}
	if err := repo.Products.Create(ctx, p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	v := &models.Variant{
		ProductID:     p.ID,
		Name:          name + " / standard pack",
		Price:         price,
		DiscountPrice: discount,
		Stock:         stock,
	}
	if err := repo.Variants.Create(ctx, v); err != nil {
		t.Fatalf("create variant: %v", err)
	}

	full, err := repo.Variants.GetByID(ctx, v.ID)
	if err != nil || full == nil {
		t.Fatalf("reload variant: %v %v", full, err)
	}
	return full
}

func userIdentity(uid uuid.UUID) service.CartIdentity {
	return service.CartIdentity{UserID: &uid}
}

func sessionIdentity(sid string) service.CartIdentity {
	return service.CartIdentity{SessionID: &sid}
}

func mustAddItem(t *testing.T, carts service.CartService, id service.CartIdentity, variantID uuid.UUID, qty int64) *models.CartItem {
	t.Helper()
	item, err := carts.AddItem(context.Background(), id, variantID, qty)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return item
}

func variantStock(t *testing.T, repo *repository.Repository, variantID uuid.UUID) int64 {
	t.Helper()
	v, err := repo.Variants.GetByID(context.Background(), variantID)
	if err != nil || v == nil {
		t.Fatalf("variant lookup: %v %v", v, err)
	}
	return v.Stock
}

func productSold(t *testing.T, repo *repository.Repository, productID uuid.UUID) int64 {
	t.Helper()
	p, err := repo.Products.GetByID(context.Background(), productID)
	if err != nil || p == nil {
		t.Fatalf("product lookup: %v %v", p, err)
	}
	return p.SoldCount
}
