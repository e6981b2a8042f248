package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VariantRepo interface {
	Create(ctx context.Context, v *models.Variant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SetStock(ctx context.Context, id uuid.UUID, stock int64) error

	// Conditional stock moves (atomic relative to concurrent writers):
	// SellStock: if stock >= qty then stock -= qty
	SellStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error)
	// RestockStock: stock += qty
	RestockStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error)
}

type variantRepo struct{ db *gorm.DB }

func NewVariantRepo(db *gorm.DB) VariantRepo { return &variantRepo{db: db} }

func (r *variantRepo) Create(ctx context.Context, v *models.Variant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *variantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var v models.Variant
	err := r.db.WithContext(ctx).Preload("Product").First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &v, err
}

func (r *variantRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Variant
	err := r.db.WithContext(ctx).Preload("Product").Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *variantRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Variant{}).Where("id = ?", id).Updates(fields).Error
}

func (r *variantRepo) SetStock(ctx context.Context, id uuid.UUID, stock int64) error {
	return r.db.WithContext(ctx).Model(&models.Variant{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *variantRepo) SellStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	// the stock >= qty predicate and the decrement are one statement, so the
	// row lock serializes concurrent sells and stock never goes negative
	tx := r.db.WithContext(ctx).Exec(`
UPDATE variants
SET stock = stock - @q,
    updated_at = now()
WHERE id = @vid
  AND stock >= @q
`, map[string]any{
		"vid": id,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *variantRepo) RestockStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE variants
SET stock = stock + @q,
    updated_at = now()
WHERE id = @vid
`, map[string]any{
		"vid": id,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}
