package checkout

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

func TestPolicyShippingThreshold(t *testing.T) {
	policy := testPolicy(t)
	cases := []struct {
		subtotal string
		want     string
	}{
		{"0", "49"},
		{"250", "49"},
		{"998.99", "49"},
		{"999", "0"},
		{"1500", "0"},
	}
	for _, tc := range cases {
		got := policy.ShippingFor(decimal.RequireFromString(tc.subtotal))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("subtotal %s: expected shipping %s, got %s", tc.subtotal, tc.want, got)
		}
	}
}

func TestPolicyTotalsUseCapturedPrice(t *testing.T) {
	policy := testPolicy(t)
	lines := []models.CartItem{
		{ProductID: uuid.New(), Quantity: 2, PriceAtAdd: decimal.RequireFromString("100.00"), Product: &models.Product{Price: decimal.RequireFromString("120.00")}},
		{ProductID: uuid.New(), Quantity: 1, PriceAtAdd: decimal.RequireFromString("50.00")},
	}
	totals := policy.Totals(lines)
	if !totals.Subtotal.Equal(decimal.NewFromInt(250)) || totals.TotalItems != 3 {
		t.Fatalf("unexpected subtotal: %s items %d", totals.Subtotal, totals.TotalItems)
	}
	if !totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.Shipping)) {
		t.Fatalf("total must equal subtotal + tax + shipping, got %+v", totals)
	}
	if !totals.Total.Equal(decimal.NewFromInt(299)) {
		t.Fatalf("expected total 299, got %s", totals.Total)
	}
}

func TestNewPolicyValidatesGateways(t *testing.T) {
	base := config.CheckoutConfig{
		FreeShippingThreshold: decimal.NewFromInt(999),
		ShippingFee:           decimal.NewFromInt(49),
		OTPValidity:           time.Hour,
	}

	cfg := base
	cfg.TestModeGateways = []string{"stripe", "RAZORPAY"}
	policy, err := NewPolicy(cfg)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	if !policy.IsTestModeGateway(enums.PaymentMethodStripe) || !policy.IsTestModeGateway(enums.PaymentMethodRazorpay) {
		t.Fatal("expected both gateways in test mode")
	}
	if policy.IsTestModeGateway(enums.PaymentMethodCashOnDelivery) {
		t.Fatal("cash on delivery is never a test mode gateway")
	}

	cfg.TestModeGateways = []string{"CASH_ON_DELIVERY"}
	if _, err := NewPolicy(cfg); err == nil {
		t.Fatal("expected error for non-gateway method")
	}
	cfg.TestModeGateways = []string{"PAYPAL"}
	if _, err := NewPolicy(cfg); err == nil {
		t.Fatal("expected error for unknown method")
	}

	cfg = base
	cfg.OTPValidity = 0
	if _, err := NewPolicy(cfg); err == nil {
		t.Fatal("expected error for zero otp validity")
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(otp) != 6 || otp < "100000" || otp > "999999" {
			t.Fatalf("otp out of range: %q", otp)
		}
		seen[otp] = true
	}
	if len(seen) < 150 {
		t.Fatalf("expected varied codes, got %d distinct of 200", len(seen))
	}
}
