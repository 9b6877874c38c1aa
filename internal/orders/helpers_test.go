package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

type recordingNotifier struct {
	events []payloads.NotificationRequestedEvent
}

func (n *recordingNotifier) NotifyTx(_ context.Context, _ *gorm.DB, event payloads.NotificationRequestedEvent) error {
	n.events = append(n.events, event)
	return nil
}

type fixture struct {
	svc      *service
	conn     *gorm.DB
	repo     Repository
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	notifier := &recordingNotifier{}
	built, err := NewService(repo, db.Wrap(conn), inventory.NewLedger(), outbox.NewService(outbox.NewRepository(conn), nil), notifier, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f := &fixture{
		svc:      built.(*service),
		conn:     conn,
		repo:     repo,
		notifier: notifier,
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc.now = func() time.Time { return f.now }
	return f
}

type seedLine struct {
	product models.Product
	qty     int
}

type seedOpts struct {
	user     uuid.UUID
	method   enums.PaymentMethod
	status   enums.OrderStatus
	city     string
	created  time.Time
	otp      string
	lines    []seedLine
	otpValid time.Duration
}

func (f *fixture) seedOrder(t *testing.T, opts seedOpts) *models.Order {
	t.Helper()
	if opts.user == uuid.Nil {
		opts.user = uuid.New()
	}
	if opts.method == "" {
		opts.method = enums.PaymentMethodCashOnDelivery
	}
	if opts.status == "" {
		opts.status = enums.OrderStatusPending
	}
	if opts.city == "" {
		opts.city = "Pune"
	}
	if opts.created.IsZero() {
		opts.created = f.now.Add(-time.Hour)
	}
	if opts.otp == "" {
		opts.otp = "123456"
	}
	if opts.otpValid == 0 {
		opts.otpValid = 7 * 24 * time.Hour
	}

	order := &models.Order{
		UserID:        opts.user,
		Status:        opts.status,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: opts.method,
		Shipping: models.ShippingAddress{
			FullName: "Asha Rao",
			Address:  "12 MG Road",
			City:     opts.city,
			State:    "MH",
			Pincode:  "411001",
			Phone:    "9876543210",
		},
		DeliveryOTP:    opts.otp,
		OTPGeneratedAt: opts.created,
		OTPExpiresAt:   opts.created.Add(opts.otpValid),
		CreatedAt:      opts.created,
		UpdatedAt:      opts.created,
	}
	subtotal := decimal.Zero
	for _, line := range opts.lines {
		lineTotal := line.product.Price.Mul(decimal.NewFromInt(int64(line.qty)))
		subtotal = subtotal.Add(lineTotal)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Quantity:    line.qty,
			Price:       line.product.Price,
			Subtotal:    lineTotal,
			CreatedAt:   opts.created,
		})
	}
	order.Subtotal = subtotal
	order.Tax = decimal.Zero
	order.ShippingCharges = decimal.Zero
	order.TotalAmount = subtotal
	if err := f.repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func (f *fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	if err := f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}
