package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// Order is the immutable-pricing record produced from a cart at checkout.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax             decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	ShippingCharges decimal.Decimal     `gorm:"column:shipping_charges;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Shipping        ShippingAddress     `gorm:"embedded;embeddedPrefix:shipping_"`
	OrderNotes      *string             `gorm:"column:order_notes"`

	DeliveryOTP    string    `gorm:"column:delivery_otp;not null"`
	OTPGeneratedAt time.Time `gorm:"column:otp_generated_at;not null"`
	OTPExpiresAt   time.Time `gorm:"column:otp_expires_at;not null"`
	OTPVerified    bool      `gorm:"column:otp_verified;not null;default:false"`

	PaymentTransactionID *string `gorm:"column:payment_transaction_id"`
	GatewayOrderID       *string `gorm:"column:gateway_order_id"`
	GatewayPaymentID     *string `gorm:"column:gateway_payment_id"`
	GatewaySignature     *string `gorm:"column:gateway_signature"`
	CancellationReason   *string `gorm:"column:cancellation_reason"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
}

// OrderItem snapshots a product line at placement time.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName     string          `gorm:"column:product_name;not null"`
	ProductImageURL *string         `gorm:"column:product_image_url"`
	Quantity        int             `gorm:"column:quantity;not null"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TotalItems sums the quantities of all lines.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
