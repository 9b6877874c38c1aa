package checkout

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// Policy holds the pricing and delivery rules applied at placement.
type Policy struct {
	freeShippingThreshold decimal.Decimal
	shippingFee           decimal.Decimal
	otpValidity           time.Duration
	testMode              map[enums.PaymentMethod]bool
}

// Totals is the priced breakdown of a set of cart lines.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Total      decimal.Decimal
	TotalItems int
}

// NewPolicy builds the policy from configuration.
func NewPolicy(cfg config.CheckoutConfig) (Policy, error) {
	if cfg.FreeShippingThreshold.IsNegative() || cfg.ShippingFee.IsNegative() {
		return Policy{}, fmt.Errorf("shipping amounts must not be negative")
	}
	if cfg.OTPValidity <= 0 {
		return Policy{}, fmt.Errorf("otp validity must be positive")
	}
	testMode := make(map[enums.PaymentMethod]bool, len(cfg.TestModeGateways))
	for _, raw := range cfg.TestModeGateways {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return Policy{}, fmt.Errorf("test mode gateway: %w", err)
		}
		if !method.IsGateway() {
			return Policy{}, fmt.Errorf("test mode gateway %s is not a payment gateway", method)
		}
		testMode[method] = true
	}
	return Policy{
		freeShippingThreshold: cfg.FreeShippingThreshold,
		shippingFee:           cfg.ShippingFee,
		otpValidity:           cfg.OTPValidity,
		testMode:              testMode,
	}, nil
}

// ShippingFor returns the shipping charge for subtotal. Orders at or above the
// free shipping threshold ship free.
func (p Policy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.freeShippingThreshold) {
		return decimal.Zero
	}
	return p.shippingFee
}

// Totals prices lines at their captured cart price. Tax is always zero.
func (p Policy) Totals(lines []models.CartItem) Totals {
	t := Totals{Subtotal: decimal.Zero, Tax: decimal.Zero}
	for _, line := range lines {
		t.Subtotal = t.Subtotal.Add(cart.LineSubtotal(line))
		t.TotalItems += line.Quantity
	}
	t.Shipping = p.ShippingFor(t.Subtotal)
	t.Total = t.Subtotal.Add(t.Tax).Add(t.Shipping)
	return t
}

// OTPValidity is how long a delivery OTP stays usable.
func (p Policy) OTPValidity() time.Duration {
	return p.otpValidity
}

// IsTestModeGateway reports whether method settles synchronously in test mode.
func (p Policy) IsTestModeGateway(method enums.PaymentMethod) bool {
	return p.testMode[method]
}
