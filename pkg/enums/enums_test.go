package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("OUT_FOR_DELIVERY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OrderStatusOutForDelivery {
		t.Fatalf("expected OUT_FOR_DELIVERY got %s", got)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected lowercase status to be rejected")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusDelivered: true,
		OrderStatusCancelled: true,
		OrderStatusReturned:  true,
		OrderStatusRefunded:  true,
	}
	for _, status := range validOrderStatuses {
		if status.IsTerminal() != terminal[status] {
			t.Fatalf("status %s terminal=%v", status, status.IsTerminal())
		}
	}
	if got := len(OpenOrderStatuses()); got != 5 {
		t.Fatalf("expected 5 open statuses got %d", got)
	}
}

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod(" stripe ")
	if err != nil || got != PaymentMethodStripe {
		t.Fatalf("expected STRIPE got %s err=%v", got, err)
	}
	if !got.IsGateway() {
		t.Fatal("stripe is a gateway method")
	}
	if PaymentMethodCashOnDelivery.IsGateway() {
		t.Fatal("cash on delivery is not a gateway method")
	}
	if _, err := ParsePaymentMethod("PAYPAL"); err == nil {
		t.Fatal("expected unknown method to be rejected")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("ADMIN"); err != nil || r != RoleAdmin {
		t.Fatalf("expected admin got %s err=%v", r, err)
	}
	if _, err := ParseRole("vendor"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}
