package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// OrderLine is the compact line summary carried by order events.
type OrderLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted in the placement transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Lines         []OrderLine         `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderPaidEvent is emitted when a payment is recorded as completed.
type OrderPaidEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	UserID               uuid.UUID           `json:"user_id"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	PaymentTransactionID string              `json:"payment_transaction_id,omitempty"`
	GatewayOrderID       string              `json:"gateway_order_id,omitempty"`
	GatewayPaymentID     string              `json:"gateway_payment_id,omitempty"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	PaidAt               time.Time           `json:"paid_at"`
}

// OrderStatusChangedEvent is emitted on every admin driven status change.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	VendorID   uuid.UUID         `json:"vendor_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderCanceledEvent is emitted when an order is cancelled and its stock restored.
type OrderCanceledEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      uuid.UUID   `json:"user_id"`
	CanceledBy  uuid.UUID   `json:"canceled_by"`
	Reason      string      `json:"reason,omitempty"`
	RestoredQty int         `json:"restored_qty"`
	Lines       []OrderLine `json:"lines"`
	CanceledAt  time.Time   `json:"canceled_at"`
}

// OrderDeliveredEvent is emitted when the delivery OTP has been verified.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	VerifiedBy  uuid.UUID `json:"verified_by"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NotificationRequestedEvent asks the notification consumer to alert a user.
type NotificationRequestedEvent struct {
	UserID  uuid.UUID              `json:"user_id"`
	OrderID *uuid.UUID             `json:"order_id,omitempty"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
}
