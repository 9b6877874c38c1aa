package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is the customer's chosen way to pay.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodStripe         PaymentMethod = "STRIPE"
	PaymentMethodRazorpay       PaymentMethod = "RAZORPAY"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodStripe,
	PaymentMethodRazorpay,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsGateway reports whether payment is collected by an online gateway rather than at the door.
func (p PaymentMethod) IsGateway() bool {
	return p == PaymentMethodStripe || p == PaymentMethodRazorpay
}

// GatewayMethods lists the methods collected online.
func GatewayMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodStripe, PaymentMethodRazorpay}
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Matching is case-insensitive.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
