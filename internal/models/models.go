package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "ORDER_STATUS_PENDING"
	OrderStatusPaid      OrderStatus = "ORDER_STATUS_PAID"
	OrderStatusShipped   OrderStatus = "ORDER_STATUS_SHIPPED"
	OrderStatusDelivered OrderStatus = "ORDER_STATUS_DELIVERED"
	OrderStatusCanceled  OrderStatus = "ORDER_STATUS_CANCELED"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "PAYMENT_STATUS_INITIATED"
	PaymentStatusPaid      PaymentStatus = "PAYMENT_STATUS_PAID"
	PaymentStatusFailed    PaymentStatus = "PAYMENT_STATUS_FAILED"
	PaymentStatusRefunded  PaymentStatus = "PAYMENT_STATUS_REFUNDED"
)

type ShipmentStatus string

const (
	ShipmentStatusAwaitingPayment ShipmentStatus = "SHIPMENT_STATUS_AWAITING_PAYMENT"
	ShipmentStatusPreparing       ShipmentStatus = "SHIPMENT_STATUS_PREPARING"
	ShipmentStatusInTransit       ShipmentStatus = "SHIPMENT_STATUS_IN_TRANSIT"
	ShipmentStatusDelivered       ShipmentStatus = "SHIPMENT_STATUS_DELIVERED"
	ShipmentStatusCanceled        ShipmentStatus = "SHIPMENT_STATUS_CANCELED"
)

type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "REFUND_STATUS_NONE"
	RefundStatusPartially RefundStatus = "REFUND_STATUS_PARTIALLY_REFUNDED"
	RefundStatusRefunded  RefundStatus = "REFUND_STATUS_REFUNDED"
)

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	IsActive  bool      `gorm:"not null;default:true;index"`
	SoldCount int64     `gorm:"not null;default:0"` // moves in lockstep with variant stock

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Variants []Variant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

// Variant is the purchasable SKU of a product (package size, dosage).
// Prices are integer minor units; DiscountPrice == 0 means no discount.
type Variant struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"type:text;not null"`
	Price         int64      `gorm:"not null"`
	DiscountPrice int64      `gorm:"not null;default:0"`
	Stock         int64      `gorm:"not null;default:0"`
	ExpiresAt     *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (Variant) TableName() string { return "variants" }

// EffectivePrice is the price a new order line is charged at.
func (v *Variant) EffectivePrice() int64 {
	if v.DiscountPrice > 0 {
		return v.DiscountPrice
	}
	return v.Price
}

// Cart is owned by exactly one of UserID / SessionID (enforced by a CHECK
// in the migration). Guest carts carry the anonymous session id.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID `gorm:"type:uuid"`
	SessionID *string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_cart_items_cart_variant"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_cart_items_cart_variant"`
	Quantity   int64     `gorm:"not null"`
	PriceAtAdd int64     `gorm:"not null"` // snapshot at insert time, never re-captured

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Variant *Variant `gorm:"foreignKey:VariantID"`
}

func (CartItem) TableName() string { return "cart_items" }

// Order is immutable after creation except for status, admin note, refund
// fields and timestamps. Line items are snapshots, immune to catalog edits.
type Order struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index"`
	AddressID    uuid.UUID   `gorm:"type:uuid;not null"`
	TrackingCode string      `gorm:"type:text;not null;index"`
	Status       OrderStatus `gorm:"type:text;not null;default:'ORDER_STATUS_PENDING';index"`

	Subtotal      int64 `gorm:"not null;default:0"`
	DiscountTotal int64 `gorm:"not null;default:0"`
	ShippingFee   int64 `gorm:"not null;default:0"`
	FinalTotal    int64 `gorm:"not null;default:0"`

	RefundedAmount int64        `gorm:"not null;default:0"`
	RefundStatus   RefundStatus `gorm:"type:text;not null;default:'REFUND_STATUS_NONE'"`
	RefundNote     *string      `gorm:"type:text"`
	RefundedAt     *time.Time   `gorm:"type:timestamptz"`

	AdminNote   *string    `gorm:"type:text"`
	PaidAt      *time.Time `gorm:"type:timestamptz"`
	DeliveredAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipment *Shipment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_order_items_order_variant"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_order_items_order_variant"`
	Quantity   int64     `gorm:"not null"`
	UnitPrice  int64     `gorm:"not null"` // effective price at order time
	TotalPrice int64     `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }

type Payment struct {
	ID      uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status  PaymentStatus `gorm:"type:text;not null;default:'PAYMENT_STATUS_INITIATED'"`
	Amount  int64         `gorm:"not null"`
	RefID   *string       `gorm:"type:text"` // gateway reference, set on verification

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Payment) TableName() string { return "payments" }

type Shipment struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Status  ShipmentStatus `gorm:"type:text;not null;default:'SHIPMENT_STATUS_AWAITING_PAYMENT'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Shipment) TableName() string { return "shipments" }
