package migrate

import (
	"context"

	"storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto for gen_random_uuid
	CreateChecks           bool // integrity CHECK constraints
	CreateIndexes          bool // indexes and UNIQUEs
	CreateFKsViaSQL        bool // FKs via SQL on top of the gorm constraints
	CreateUpdatedAtTrigger bool // updated_at refresh trigger
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateStorefrontDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("starting storefront database migration")

	if opt.CreateExtensions {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("failed to enable pgcrypto", zap.Error(err))
			return err
		}
	}

	log.Info("creating tables")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Shipment{},
	); err != nil {
		log.Error("failed to create tables", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated
BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_variants_updated ON variants;
CREATE TRIGGER trg_variants_updated
BEFORE UPDATE ON variants
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_cart_items_updated ON cart_items;
CREATE TRIGGER trg_cart_items_updated
BEFORE UPDATE ON cart_items
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("failed to create updated_at triggers", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("creating CHECK constraints")

		// stock and sold count can never go negative
		if err := db.Exec(`
ALTER TABLE variants
  DROP CONSTRAINT IF EXISTS chk_variants_stock_non_negative;
ALTER TABLE variants
  ADD CONSTRAINT chk_variants_stock_non_negative
  CHECK (stock >= 0);

ALTER TABLE products
  DROP CONSTRAINT IF EXISTS chk_products_sold_count_non_negative;
ALTER TABLE products
  ADD CONSTRAINT chk_products_sold_count_non_negative
  CHECK (sold_count >= 0);
`).Error; err != nil {
			log.Error("failed to create stock CHECKs", zap.Error(err))
			return err
		}

		// a discount may never exceed the price
		if err := db.Exec(`
ALTER TABLE variants
  DROP CONSTRAINT IF EXISTS chk_variants_discount_le_price;
ALTER TABLE variants
  ADD CONSTRAINT chk_variants_discount_le_price
  CHECK (discount_price = 0 OR discount_price <= price);
`).Error; err != nil {
			log.Error("failed to create discount CHECK", zap.Error(err))
			return err
		}

		// a cart belongs to exactly one of user / anonymous session
		if err := db.Exec(`
ALTER TABLE carts
  DROP CONSTRAINT IF EXISTS chk_carts_single_owner;
ALTER TABLE carts
  ADD CONSTRAINT chk_carts_single_owner
  CHECK ((user_id IS NULL) <> (session_id IS NULL));
`).Error; err != nil {
			log.Error("failed to create cart owner CHECK", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS chk_cart_items_quantity_gt_zero;
ALTER TABLE cart_items
  ADD CONSTRAINT chk_cart_items_quantity_gt_zero
  CHECK (quantity > 0);

ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_quantity_gt_zero
  CHECK (quantity > 0);
`).Error; err != nil {
			log.Error("failed to create quantity CHECKs", zap.Error(err))
			return err
		}

		// refunds can never exceed the order total
		if err := db.Exec(`
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_refund_le_total;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_refund_le_total
  CHECK (refunded_amount >= 0 AND refunded_amount <= final_total);
`).Error; err != nil {
			log.Error("failed to create refund CHECK", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN (
    'ORDER_STATUS_PENDING','ORDER_STATUS_PAID','ORDER_STATUS_SHIPPED',
    'ORDER_STATUS_DELIVERED','ORDER_STATUS_CANCELED'));

ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_refund_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_refund_status_allowed
  CHECK (refund_status IN (
    'REFUND_STATUS_NONE','REFUND_STATUS_PARTIALLY_REFUNDED','REFUND_STATUS_REFUNDED'));
`).Error; err != nil {
			log.Error("failed to create status CHECKs", zap.Error(err))
			return err
		}
	}

	if opt.CreateIndexes {
		log.Info("creating indexes")

		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user
ON carts (user_id) WHERE user_id IS NOT NULL;

CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_session
ON carts (session_id) WHERE session_id IS NOT NULL;

CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_variant
ON cart_items (cart_id, variant_id);

CREATE UNIQUE INDEX IF NOT EXISTS ux_order_items_order_variant
ON order_items (order_id, variant_id);

CREATE INDEX IF NOT EXISTS ix_orders_user_created
ON orders (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS ix_orders_status_created
ON orders (status, created_at DESC);
`).Error; err != nil {
			log.Error("failed to create indexes", zap.Error(err))
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("creating foreign keys")

		if err := db.Exec(`
ALTER TABLE variants
  DROP CONSTRAINT IF EXISTS fk_variants_product,
  ADD CONSTRAINT fk_variants_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE;

ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_cart,
  ADD CONSTRAINT fk_cart_items_cart
    FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE;

ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_variant,
  ADD CONSTRAINT fk_cart_items_variant
    FOREIGN KEY (variant_id) REFERENCES variants(id) ON DELETE CASCADE;

ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;

ALTER TABLE payments
  DROP CONSTRAINT IF EXISTS fk_payments_order,
  ADD CONSTRAINT fk_payments_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;

ALTER TABLE shipments
  DROP CONSTRAINT IF EXISTS fk_shipments_order,
  ADD CONSTRAINT fk_shipments_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("failed to create foreign keys", zap.Error(err))
			return err
		}
	}

	log.Info("storefront database migration finished")
	return nil
}
