package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/metrics"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

func expectCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return typed
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestCancelRestoresStockAndEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "100.00", 3)
	b := dbtest.SeedProduct(t, f.conn, vendor, "B", "50.00", 0)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 2}, {b, 1}}})

	view, err := f.svc.Cancel(ctx, order.UserID, order.ID, "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if view.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", view.Status)
	}
	if got := dbtest.Stock(t, f.conn, a.ID); got != 5 {
		t.Fatalf("expected stock 5 for A, got %d", got)
	}
	if got := dbtest.Stock(t, f.conn, b.ID); got != 1 {
		t.Fatalf("expected stock 1 for B, got %d", got)
	}
	if got := f.countEvents(t, enums.EventOrderCanceled); got != 1 {
		t.Fatalf("expected one order_canceled event, got %d", got)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].UserID != order.UserID {
		t.Fatalf("expected one notification for the buyer, got %+v", f.notifier.events)
	}

	stored, err := f.repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.CancelledAt == nil || stored.CancellationReason == nil || *stored.CancellationReason != "changed my mind" {
		t.Fatalf("cancellation fields not stored: %+v", stored)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 2}}})

	if _, err := f.svc.Cancel(ctx, order.UserID, order.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.UserID, order.ID, ""); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := dbtest.Stock(t, f.conn, a.ID); got != 3 {
		t.Fatalf("stock must be restored once, got %d", got)
	}
	if got := f.countEvents(t, enums.EventOrderCanceled); got != 1 {
		t.Fatalf("expected a single cancel event, got %d", got)
	}
}

// failedCommit runs the callback inside a real transaction and then rolls it
// back, as a failed commit would.
type failedCommit struct {
	inner txRunner
}

func (f failedCommit) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return f.inner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("commit failed")
	})
}

func TestCancelCountsOnlyCommittedCancellations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	f.svc.metrics = metrics.NewOrderMetrics(reg)
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 2}}})

	committed := f.svc.tx
	f.svc.tx = failedCommit{inner: committed}
	if _, err := f.svc.Cancel(ctx, order.UserID, order.ID, ""); err == nil {
		t.Fatal("expected cancel to fail")
	}
	if got := cancelledCount(t, reg); got != 0 {
		t.Fatalf("rolled back cancel must not be counted, got %v", got)
	}
	if got := dbtest.Stock(t, f.conn, a.ID); got != 1 {
		t.Fatalf("stock restore must roll back, got %d", got)
	}

	f.svc.tx = committed
	if _, err := f.svc.Cancel(ctx, order.UserID, order.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.UserID, order.ID, ""); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := cancelledCount(t, reg); got != 1 {
		t.Fatalf("expected one counted cancellation, got %v", got)
	}
}

func cancelledCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != "orderflow_orders_cancelled_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestCancelRejectsForeignAndDeliveredOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 1}}})

	_, err := f.svc.Cancel(ctx, uuid.New(), order.ID, "")
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Cancel(ctx, order.UserID, uuid.New(), "")
	expectCode(t, err, pkgerrors.CodeNotFound)

	delivered := f.seedOrder(t, seedOpts{status: enums.OrderStatusDelivered, lines: []seedLine{{a, 1}}})
	_, err = f.svc.Cancel(ctx, delivered.UserID, delivered.ID, "")
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if got := dbtest.Stock(t, f.conn, a.ID); got != 1 {
		t.Fatalf("rejected cancel must not touch stock, got %d", got)
	}
}

func TestUpdateStatusChecksVendorOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 1}}})

	_, err := f.svc.UpdateStatus(ctx, vendor, uuid.New(), enums.OrderStatusShipped)
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), order.ID, enums.OrderStatusShipped)
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatus("LOST"))
	expectCode(t, err, pkgerrors.CodeValidation)

	view, err := f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatusShipped)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if view.Status != enums.OrderStatusShipped || view.ShippedAt == nil {
		t.Fatalf("expected SHIPPED with shipped_at, got %+v", view)
	}
	if got := f.countEvents(t, enums.EventOrderStatusChanged); got != 1 {
		t.Fatalf("expected one status event, got %d", got)
	}

	if _, err := f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatusShipped); err != nil {
		t.Fatalf("repeat status: %v", err)
	}
	if got := f.countEvents(t, enums.EventOrderStatusChanged); got != 1 {
		t.Fatalf("repeating a status must not emit, got %d events", got)
	}
}

func TestUpdateStatusToCancelledRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "10.00", 0)
	order := f.seedOrder(t, seedOpts{status: enums.OrderStatusConfirmed, lines: []seedLine{{a, 4}}})

	view, err := f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel via status: %v", err)
	}
	if view.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", view.Status)
	}
	if got := dbtest.Stock(t, f.conn, a.ID); got != 4 {
		t.Fatalf("expected stock 4, got %d", got)
	}

	_, err = f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatusShipped)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStatusDeliveredCompletesPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{lines: []seedLine{{a, 1}}})

	view, err := f.svc.UpdateStatus(ctx, vendor, order.ID, enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if view.PaymentStatus != enums.PaymentStatusCompleted || view.DeliveredAt == nil {
		t.Fatalf("expected completed payment and delivered_at, got %+v", view)
	}
}

func TestVerifyDeliveryOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{status: enums.OrderStatusOutForDelivery, otp: "482913", lines: []seedLine{{a, 1}}})

	_, err := f.svc.VerifyDeliveryOTP(ctx, uuid.New(), order.ID, "482913")
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.VerifyDeliveryOTP(ctx, vendor, order.ID, "000000")
	typed := expectCode(t, err, pkgerrors.CodeOTP)
	if details, _ := typed.Details().(map[string]string); details["reason"] != "invalid" {
		t.Fatalf("expected invalid reason, got %+v", typed.Details())
	}

	view, err := f.svc.VerifyDeliveryOTP(ctx, vendor, order.ID, " 482913 ")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if view.Status != enums.OrderStatusDelivered || view.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected DELIVERED and COMPLETED, got %s %s", view.Status, view.PaymentStatus)
	}
	if !view.OTPVerified {
		t.Fatal("expected otp to be marked verified")
	}
	if got := f.countEvents(t, enums.EventOrderDelivered); got != 1 {
		t.Fatalf("expected one delivered event, got %d", got)
	}

	_, err = f.svc.VerifyDeliveryOTP(ctx, vendor, order.ID, "482913")
	typed = expectCode(t, err, pkgerrors.CodeOTP)
	if details, _ := typed.Details().(map[string]string); details["reason"] != "already_verified" {
		t.Fatalf("expected already_verified reason, got %+v", typed.Details())
	}
}

func TestVerifyDeliveryOTPExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, vendor, "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{
		status:  enums.OrderStatusShipped,
		otp:     "111222",
		created: f.now.Add(-8 * 24 * time.Hour),
		lines:   []seedLine{{a, 1}},
	})

	_, err := f.svc.VerifyDeliveryOTP(ctx, vendor, order.ID, "111222")
	typed := expectCode(t, err, pkgerrors.CodeOTP)
	if details, _ := typed.Details().(map[string]string); details["reason"] != "expired" {
		t.Fatalf("expected expired reason, got %+v", typed.Details())
	}
	stored, _ := f.repo.FindByID(ctx, order.ID)
	if stored.Status != enums.OrderStatusShipped || stored.OTPVerified {
		t.Fatalf("expired otp must not change the order, got %+v", stored)
	}
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{method: enums.PaymentMethodRazorpay, lines: []seedLine{{a, 1}}})

	_, err := f.svc.ConfirmPayment(ctx, order.UserID, order.ID, PaymentConfirmation{})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.ConfirmPayment(ctx, uuid.New(), order.ID, PaymentConfirmation{GatewayOrderID: "g1", GatewayPaymentID: "p1"})
	expectCode(t, err, pkgerrors.CodeNotFound)

	view, err := f.svc.ConfirmPayment(ctx, order.UserID, order.ID, PaymentConfirmation{GatewayOrderID: "g1", GatewayPaymentID: "p1", Signature: "sig"})
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if view.Status != enums.OrderStatusConfirmed || view.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected CONFIRMED/COMPLETED, got %s/%s", view.Status, view.PaymentStatus)
	}

	if _, err := f.svc.ConfirmPayment(ctx, order.UserID, order.ID, PaymentConfirmation{GatewayOrderID: "g1", GatewayPaymentID: "p1"}); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if got := f.countEvents(t, enums.EventOrderPaid); got != 1 {
		t.Fatalf("expected one paid event, got %d", got)
	}
}

func TestConfirmPaymentRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	order := f.seedOrder(t, seedOpts{method: enums.PaymentMethodStripe, status: enums.OrderStatusCancelled, lines: []seedLine{{a, 1}}})

	_, err := f.svc.ConfirmTestModePayment(ctx, order.ID, "stripe_test_1")
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestExpireStalePayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 0)
	old := f.now.Add(-2 * time.Hour)
	stale := f.seedOrder(t, seedOpts{method: enums.PaymentMethodStripe, created: old, lines: []seedLine{{a, 2}}})
	cod := f.seedOrder(t, seedOpts{method: enums.PaymentMethodCashOnDelivery, created: old, lines: []seedLine{{a, 1}}})
	fresh := f.seedOrder(t, seedOpts{method: enums.PaymentMethodRazorpay, created: f.now, lines: []seedLine{{a, 1}}})

	result, err := f.svc.ExpireStalePayments(ctx, f.now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if result.Scanned != 1 || result.Cancelled != 1 {
		t.Fatalf("expected 1 scanned and cancelled, got %+v", result)
	}
	if got := dbtest.Stock(t, f.conn, a.ID); got != 2 {
		t.Fatalf("expected stale order stock restored, got %d", got)
	}

	for id, want := range map[uuid.UUID]enums.OrderStatus{
		stale.ID: enums.OrderStatusCancelled,
		cod.ID:   enums.OrderStatusPending,
		fresh.ID: enums.OrderStatusPending,
	} {
		stored, err := f.repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if stored.Status != want {
			t.Fatalf("order %s: expected %s, got %s", id, want, stored.Status)
		}
	}
}

func TestListForUserPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	a := dbtest.SeedProduct(t, f.conn, uuid.New(), "A", "10.00", 1)
	for i := 0; i < 3; i++ {
		f.seedOrder(t, seedOpts{user: user, created: f.now.Add(-time.Duration(i+1) * time.Minute), lines: []seedLine{{a, 1}}})
	}
	f.seedOrder(t, seedOpts{lines: []seedLine{{a, 1}}})

	first, err := f.svc.ListForUser(ctx, user, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 || first.Cursor == "" {
		t.Fatalf("expected 2 items and a cursor, got %d %q", len(first.Items), first.Cursor)
	}
	second, err := f.svc.ListForUser(ctx, user, pagination.Params{Limit: 2, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 1 || second.Cursor != "" {
		t.Fatalf("expected final page of 1, got %d %q", len(second.Items), second.Cursor)
	}
	if second.Items[0].OrderID == first.Items[1].OrderID {
		t.Fatal("pages must not overlap")
	}

	_, err = f.svc.ListForUser(ctx, user, pagination.Params{Cursor: "not-base64!"})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestGetForAdminAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	mine := dbtest.SeedProduct(t, f.conn, vendor, "Mine", "100.00", 5)
	other := dbtest.SeedProduct(t, f.conn, uuid.New(), "Other", "7.00", 5)
	delivered := f.seedOrder(t, seedOpts{status: enums.OrderStatusDelivered, lines: []seedLine{{mine, 2}}})
	f.seedOrder(t, seedOpts{lines: []seedLine{{mine, 1}}})
	foreign := f.seedOrder(t, seedOpts{lines: []seedLine{{other, 1}}})

	if _, err := f.svc.GetForAdmin(ctx, vendor, delivered.ID); err != nil {
		t.Fatalf("get for admin: %v", err)
	}
	_, err := f.svc.GetForAdmin(ctx, vendor, foreign.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	stats, err := f.svc.StatsForAdmin(ctx, vendor)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalOrders != 2 || stats.DeliveredOrders != 1 || stats.PendingOrders != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.TotalRevenue.Equal(decimal.NewFromInt(200)) || !stats.PendingRevenue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected revenue: %s %s", stats.TotalRevenue, stats.PendingRevenue)
	}
}
