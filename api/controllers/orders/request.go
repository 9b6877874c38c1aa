package orders

import (
	"strings"

	"github.com/angelmondragon/orderflow-backend/internal/checkout"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/google/uuid"
)

// PlaceOrderRequest converts the caller's cart into an order. Shipping fields
// are read only when use_profile_address is false; omitting it means true.
type PlaceOrderRequest struct {
	PaymentMethod     string                  `json:"payment_method" validate:"required"`
	UseProfileAddress *bool                   `json:"use_profile_address,omitempty"`
	Shipping          *ShippingAddressRequest `json:"shipping_address,omitempty"`
	OrderNotes        *string                 `json:"order_notes,omitempty" validate:"omitempty,max=500"`
}

type ShippingAddressRequest struct {
	FullName string  `json:"full_name" validate:"max=120"`
	Address  string  `json:"address" validate:"max=500"`
	City     string  `json:"city" validate:"max=80"`
	State    string  `json:"state" validate:"max=80"`
	Pincode  string  `json:"pincode" validate:"omitempty,numeric,len=6"`
	Phone    string  `json:"phone" validate:"omitempty,numeric,min=10,max=15"`
	Landmark *string `json:"landmark,omitempty" validate:"omitempty,max=120"`
	AltPhone *string `json:"alternate_phone,omitempty" validate:"omitempty,numeric,min=10,max=15"`
}

func (r PlaceOrderRequest) toInput(userID uuid.UUID) (checkout.PlaceOrderInput, error) {
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return checkout.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]any{"payment_method": r.PaymentMethod})
	}
	useProfile := r.UseProfileAddress == nil || *r.UseProfileAddress
	input := checkout.PlaceOrderInput{
		UserID:            userID,
		PaymentMethod:     method,
		UseProfileAddress: useProfile,
		OrderNotes:        r.OrderNotes,
	}
	if !useProfile && r.Shipping != nil {
		input.Shipping = models.ShippingAddress{
			FullName: r.Shipping.FullName,
			Address:  r.Shipping.Address,
			City:     r.Shipping.City,
			State:    r.Shipping.State,
			Pincode:  r.Shipping.Pincode,
			Phone:    r.Shipping.Phone,
			Landmark: r.Shipping.Landmark,
			AltPhone: r.Shipping.AltPhone,
		}
	}
	return input, nil
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ConfirmPaymentRequest is the gateway callback relayed by the client.
type ConfirmPaymentRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	GatewayOrderID   string    `json:"gateway_order_id" validate:"required,max=255"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required,max=255"`
	Signature        string    `json:"signature" validate:"max=512"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r UpdateStatusRequest) status() (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	return status, nil
}

type VerifyDeliveryRequest struct {
	OTP string `json:"otp" validate:"required,numeric,len=6"`
}
