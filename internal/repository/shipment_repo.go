package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentRepo interface {
	Create(ctx context.Context, s *models.Shipment) error
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status models.ShipmentStatus) error
}

type shipmentRepo struct{ db *gorm.DB }

func NewShipmentRepo(db *gorm.DB) ShipmentRepo { return &shipmentRepo{db: db} }

func (r *shipmentRepo) Create(ctx context.Context, s *models.Shipment) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shipmentRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var s models.Shipment
	err := r.db.WithContext(ctx).First(&s, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *shipmentRepo) UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status models.ShipmentStatus) error {
	return r.db.WithContext(ctx).Model(&models.Shipment{}).Where("order_id = ?", orderID).Update("status", status).Error
}
