package orders

import (
	"time"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

// planTransition returns the column writes for moving order to target.
// changed is false when the order already sits in target. Cancellation is not
// planned here because it must restore stock; see service.cancelLocked.
//
// Any status may be set by a vendor except that a cancelled order stays
// cancelled.
func planTransition(order *models.Order, target enums.OrderStatus, now time.Time) (map[string]any, bool, error) {
	if !target.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if order.Status == target {
		return nil, false, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled order cannot change status").
			WithDetails(map[string]any{"from": order.Status, "to": target})
	}

	fields := map[string]any{"status": target}
	switch target {
	case enums.OrderStatusConfirmed:
		fields["confirmed_at"] = now
	case enums.OrderStatusShipped:
		fields["shipped_at"] = now
	case enums.OrderStatusDelivered:
		fields["delivered_at"] = now
		fields["payment_status"] = enums.PaymentStatusCompleted
	}
	return fields, true, nil
}

// checkCancellable reports whether order may move to CANCELLED. ok is false
// with a nil error when the order is already cancelled.
func checkCancellable(order *models.Order) (bool, error) {
	switch {
	case order.Status == enums.OrderStatusCancelled:
		return false, nil
	case order.Status == enums.OrderStatusDelivered:
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "delivered order cannot be cancelled")
	case order.Status.IsTerminal():
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}
	return true, nil
}

// applyFields mirrors written columns onto the in-memory order.
func applyFields(order *models.Order, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "payment_status":
			order.PaymentStatus = value.(enums.PaymentStatus)
		case "confirmed_at":
			t := value.(time.Time)
			order.ConfirmedAt = &t
		case "shipped_at":
			t := value.(time.Time)
			order.ShippedAt = &t
		case "delivered_at":
			t := value.(time.Time)
			order.DeliveredAt = &t
		case "cancelled_at":
			t := value.(time.Time)
			order.CancelledAt = &t
		case "cancellation_reason":
			order.CancellationReason = value.(*string)
		case "otp_verified":
			order.OTPVerified = value.(bool)
		case "payment_transaction_id":
			order.PaymentTransactionID = value.(*string)
		case "gateway_order_id":
			order.GatewayOrderID = value.(*string)
		case "gateway_payment_id":
			order.GatewayPaymentID = value.(*string)
		case "gateway_signature":
			order.GatewaySignature = value.(*string)
		case "updated_at":
			order.UpdatedAt = value.(time.Time)
		}
	}
}
