package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderConfirmation is the summary sent to the buyer once an order is placed.
type OrderConfirmation struct {
	UserID        uuid.UUID
	OrderID       uuid.UUID
	OTP           string
	Items         []payloads.OrderLine
	Shipping      models.ShippingAddress
	Total         decimal.Decimal
	PaymentMethod enums.PaymentMethod
}

// Dispatcher queues notification requests on the outbox. Delivery happens in
// the worker once the publisher forwards the event.
type Dispatcher struct {
	tx     txRunner
	outbox outbox.Emitter
}

// NewDispatcher builds a dispatcher writing through emitter.
func NewDispatcher(tx txRunner, emitter outbox.Emitter) (*Dispatcher, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Dispatcher{tx: tx, outbox: emitter}, nil
}

// NotifyTx queues event inside the caller's transaction.
func (d *Dispatcher) NotifyTx(ctx context.Context, tx *gorm.DB, event payloads.NotificationRequestedEvent) error {
	if event.UserID == uuid.Nil {
		return errors.New("notification user id required")
	}
	if !event.Type.IsValid() {
		return fmt.Errorf("unknown notification type %q", event.Type)
	}
	if strings.TrimSpace(event.Title) == "" {
		return errors.New("notification title required")
	}
	return d.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   event.UserID,
		Data:          event,
	})
}

// SendOrderConfirmation queues the order confirmation in its own transaction.
// Callers treat a failure as non-fatal for the order.
func (d *Dispatcher) SendOrderConfirmation(ctx context.Context, c OrderConfirmation) error {
	if c.OrderID == uuid.Nil {
		return errors.New("order id required")
	}
	orderID := c.OrderID
	event := payloads.NotificationRequestedEvent{
		UserID:  c.UserID,
		OrderID: &orderID,
		Type:    enums.NotificationTypeOrderConfirmation,
		Title:   "Order placed",
		Message: confirmationMessage(c),
	}
	return d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return d.NotifyTx(ctx, tx, event)
	})
}

func confirmationMessage(c OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s placed.", strings.ToUpper(c.OrderID.String()[:8]))
	if len(c.Items) > 0 {
		parts := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			parts = append(parts, fmt.Sprintf("%d x %s", item.Quantity, item.ProductName))
		}
		fmt.Fprintf(&b, " Items: %s.", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, " Total %s (%s).", c.Total.StringFixed(2), c.PaymentMethod)
	if c.Shipping.FullName != "" {
		fmt.Fprintf(&b, " Shipping to %s, %s %s.", c.Shipping.FullName, c.Shipping.City, c.Shipping.Pincode)
	}
	fmt.Fprintf(&b, " Delivery OTP %s, share it with the courier at handover.", c.OTP)
	return b.String()
}
