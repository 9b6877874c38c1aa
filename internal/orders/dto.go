package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

// ShippingView is the shipping snapshot as returned to clients.
type ShippingView struct {
	FullName string  `json:"full_name"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Pincode  string  `json:"pincode"`
	Phone    string  `json:"phone"`
	Landmark *string `json:"landmark,omitempty"`
	AltPhone *string `json:"alternate_phone,omitempty"`
}

// ItemView is one immutable order line.
type ItemView struct {
	OrderItemID *uuid.UUID      `json:"order_item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price_at_order"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderView is the full order detail. The delivery OTP is never included.
type OrderView struct {
	OrderID            *uuid.UUID          `json:"order_id"`
	UserID             uuid.UUID           `json:"user_id"`
	Status             enums.OrderStatus   `json:"status"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	Items              []ItemView          `json:"order_items"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	Tax                decimal.Decimal     `json:"tax_amount"`
	ShippingCharges    decimal.Decimal     `json:"shipping_charges"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	TotalItems         int                 `json:"total_items"`
	Shipping           *ShippingView       `json:"shipping_address,omitempty"`
	OrderNotes         *string             `json:"order_notes,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	TransactionID      *string             `json:"transaction_id,omitempty"`
	OTPVerified        bool                `json:"otp_verified"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          *time.Time          `json:"updated_at,omitempty"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
}

// SummaryView is the compact row used by listings.
type SummaryView struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalItems    int                 `json:"total_items"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Items         []ItemView          `json:"order_items"`
	Shipping      *ShippingView       `json:"shipping_address,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// UserListResult is one cursor page of the caller's orders.
type UserListResult struct {
	Items  []SummaryView `json:"items"`
	Cursor string        `json:"cursor"`
}

// AdminListResult is one offset page of a vendor's orders.
type AdminListResult struct {
	Items []SummaryView   `json:"items"`
	Page  pagination.Page `json:"page"`
}

// AdminListParams filters and sorts the vendor order listing.
type AdminListParams struct {
	Status        *enums.OrderStatus
	Keyword       string
	SortField     string
	SortDirection string
	Page          int
	Size          int
}

// Stats aggregates a vendor's orders.
type Stats struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	ConfirmedOrders int64           `json:"confirmed_orders"`
	ShippedOrders   int64           `json:"shipped_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingRevenue  decimal.Decimal `json:"pending_revenue"`
}

// PaymentConfirmation carries the gateway correlation ids reported after payment.
type PaymentConfirmation struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ExpireResult reports a stale payment sweep.
type ExpireResult struct {
	Scanned   int
	Cancelled int
}

func shippingView(a models.ShippingAddress) *ShippingView {
	return &ShippingView{
		FullName: a.FullName,
		Address:  a.Address,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
		Phone:    a.Phone,
		Landmark: a.Landmark,
		AltPhone: a.AltPhone,
	}
}

func itemViews(items []models.OrderItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		id := item.ID
		out = append(out, ItemView{
			OrderItemID: &id,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ImageURL:    item.ProductImageURL,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}
	return out
}

// NewOrderView maps a stored order to its detail view.
func NewOrderView(o *models.Order) *OrderView {
	id := o.ID
	updated := o.UpdatedAt
	return &OrderView{
		OrderID:            &id,
		UserID:             o.UserID,
		Status:             o.Status,
		PaymentMethod:      o.PaymentMethod,
		PaymentStatus:      o.PaymentStatus,
		Items:              itemViews(o.Items),
		Subtotal:           o.Subtotal,
		Tax:                o.Tax,
		ShippingCharges:    o.ShippingCharges,
		TotalAmount:        o.TotalAmount,
		TotalItems:         o.TotalItems(),
		Shipping:           shippingView(o.Shipping),
		OrderNotes:         o.OrderNotes,
		CancellationReason: o.CancellationReason,
		TransactionID:      o.PaymentTransactionID,
		OTPVerified:        o.OTPVerified,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          &updated,
		ConfirmedAt:        o.ConfirmedAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
	}
}

func newSummary(o *models.Order, withShipping bool) SummaryView {
	view := SummaryView{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		TotalItems:    o.TotalItems(),
		TotalAmount:   o.TotalAmount,
		Items:         itemViews(o.Items),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if withShipping {
		view.Shipping = shippingView(o.Shipping)
	}
	return view
}
