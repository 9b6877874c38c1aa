package orders

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/metrics"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

const (
	staleBatchSize        = 100
	stalePaymentReason    = "payment not completed"
	vendorCancelReason    = "cancelled by vendor"
	otpReasonInvalid      = "invalid"
	otpReasonExpired      = "expired"
	otpReasonVerified     = "already_verified"
	cancelOriginUser      = "user"
	cancelOriginVendor    = "vendor"
	cancelOriginExpiry    = "payment_expiry"
	notificationIDPrefixN = 8
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockRestorer returns units to products when an order is cancelled.
type StockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Notifier queues an in-app notification inside the caller's transaction.
type Notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, event payloads.NotificationRequestedEvent) error
}

// Service exposes the order lifecycle to customers and vendors.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserListResult, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderView, error)
	ConfirmPayment(ctx context.Context, userID, orderID uuid.UUID, confirmation PaymentConfirmation) (*OrderView, error)
	ConfirmTestModePayment(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error)

	ListForAdmin(ctx context.Context, vendorID uuid.UUID, params AdminListParams) (*AdminListResult, error)
	ListByStatusForAdmin(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, page pagination.PageParams) (*AdminListResult, error)
	GetForAdmin(ctx context.Context, vendorID, orderID uuid.UUID) (*OrderView, error)
	UpdateStatus(ctx context.Context, vendorID, orderID uuid.UUID, status enums.OrderStatus) (*OrderView, error)
	StatsForAdmin(ctx context.Context, vendorID uuid.UUID) (*Stats, error)
	VerifyDeliveryOTP(ctx context.Context, vendorID, orderID uuid.UUID, otp string) (*OrderView, error)

	ExpireStalePayments(ctx context.Context, cutoff time.Time) (ExpireResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    StockRestorer
	outbox   outboxPublisher
	notifier Notifier
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, stock StockRestorer, outbox outboxPublisher, notifier Notifier, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stock:    stock,
		outbox:   outbox,
		notifier: notifier,
		metrics:  m,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	query := userListParams{UserID: userID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListForUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &UserListResult{Items: make([]SummaryView, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, newSummary(&rows[i], false))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return NewOrderView(order), nil
}

// Cancel cancels the caller's own order and restores its stock in the same
// transaction. Cancelling an already cancelled order is a no-op.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderView, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	var (
		view      *OrderView
		cancelled bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		actor := &outbox.ActorRef{UserID: userID, Role: enums.RoleUser.String()}
		if cancelled, err = s.cancelLocked(ctx, tx, order, actor, reason); err != nil {
			return err
		}
		view = NewOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cancelled {
		s.metrics.IncCancelled(cancelOriginUser)
	}
	return view, nil
}

// ConfirmPayment records the gateway callback for the caller's order. The
// signature is stored as received; verifying it belongs to the gateway adapter.
func (s *service) ConfirmPayment(ctx context.Context, userID, orderID uuid.UUID, confirmation PaymentConfirmation) (*OrderView, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	if strings.TrimSpace(confirmation.GatewayOrderID) == "" || strings.TrimSpace(confirmation.GatewayPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id and payment id are required")
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		fields := map[string]any{
			"gateway_order_id":   strPtr(confirmation.GatewayOrderID),
			"gateway_payment_id": strPtr(confirmation.GatewayPaymentID),
			"gateway_signature":  strPtr(confirmation.Signature),
		}
		actor := &outbox.ActorRef{UserID: userID, Role: enums.RoleUser.String()}
		if err := s.recordPaymentLocked(ctx, tx, order, fields, actor); err != nil {
			return err
		}
		view = NewOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ConfirmTestModePayment settles an order paid through a synchronous test-mode
// gateway, standing in for the webhook a live gateway would send.
func (s *service) ConfirmTestModePayment(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error) {
	if orderID == uuid.Nil || strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and transaction id are required")
	}
	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		fields := map[string]any{"payment_transaction_id": strPtr(transactionID)}
		if err := s.recordPaymentLocked(ctx, tx, order, fields, nil); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListForAdmin(ctx context.Context, vendorID uuid.UUID, params AdminListParams) (*AdminListResult, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	sort, err := parseSort(params.SortField, params.SortDirection)
	if err != nil {
		return nil, err
	}
	filter := adminFilter{Status: params.Status, Keyword: params.Keyword, Sort: sort}
	return s.listForAdmin(ctx, vendorID, filter, pagination.PageParams{Page: params.Page, Size: params.Size}, true)
}

func (s *service) ListByStatusForAdmin(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, page pagination.PageParams) (*AdminListResult, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	sort, _ := parseSort(defaultSortField, defaultSortDir)
	filter := adminFilter{Status: &status, Sort: sort}
	return s.listForAdmin(ctx, vendorID, filter, page, false)
}

func (s *service) listForAdmin(ctx context.Context, vendorID uuid.UUID, filter adminFilter, page pagination.PageParams, withShipping bool) (*AdminListResult, error) {
	page = page.Normalize()
	rows, total, err := s.repo.ListForAdmin(ctx, vendorID, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	result := &AdminListResult{
		Items: make([]SummaryView, 0, len(rows)),
		Page:  pagination.NewPage(page, total),
	}
	for i := range rows {
		result.Items = append(result.Items, newSummary(&rows[i], withShipping))
	}
	return result, nil
}

func (s *service) GetForAdmin(ctx context.Context, vendorID, orderID uuid.UUID) (*OrderView, error) {
	if vendorID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id and order id are required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	if err := s.ensureOwned(ctx, s.repo, order.ID, vendorID); err != nil {
		return nil, err
	}
	return NewOrderView(order), nil
}

// UpdateStatus applies a vendor-directed status change. Moving to CANCELLED
// goes through the cancellation path so stock is restored.
func (s *service) UpdateStatus(ctx context.Context, vendorID, orderID uuid.UUID, status enums.OrderStatus) (*OrderView, error) {
	if vendorID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id and order id are required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var (
		view      *OrderView
		changed   bool
		cancelled bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.ensureOwned(ctx, s.repo.WithTx(tx), order.ID, vendorID); err != nil {
			return err
		}
		actor := &outbox.ActorRef{UserID: vendorID, Role: enums.RoleAdmin.String()}

		if status == enums.OrderStatusCancelled {
			if cancelled, err = s.cancelLocked(ctx, tx, order, actor, vendorCancelReason); err != nil {
				return err
			}
			view = NewOrderView(order)
			return nil
		}

		from := order.Status
		var fields map[string]any
		fields, changed, err = planTransition(order, status, s.now())
		if err != nil {
			return err
		}
		if changed {
			if err := s.writeFields(ctx, tx, order, fields); err != nil {
				return err
			}
			if err := s.emitStatusChanged(ctx, tx, order, from, vendorID, actor); err != nil {
				return err
			}
		}
		view = NewOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncTransition(status.String())
	}
	if cancelled {
		s.metrics.IncCancelled(cancelOriginVendor)
	}
	return view, nil
}

func (s *service) StatsForAdmin(ctx context.Context, vendorID uuid.UUID) (*Stats, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	stats, err := s.repo.StatsForAdmin(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order stats")
	}
	return stats, nil
}

// VerifyDeliveryOTP confirms physical handover. Checks run in a fixed order:
// existence, vendor ownership, code match, expiry, then single use.
func (s *service) VerifyDeliveryOTP(ctx context.Context, vendorID, orderID uuid.UUID, otp string) (*OrderView, error) {
	if vendorID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id and order id are required")
	}
	otp = strings.TrimSpace(otp)

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.ensureOwned(ctx, s.repo.WithTx(tx), order.ID, vendorID); err != nil {
			return err
		}
		now := s.now()
		if order.DeliveryOTP == "" || subtle.ConstantTimeCompare([]byte(otp), []byte(order.DeliveryOTP)) != 1 {
			return otpError(otpReasonInvalid, "invalid delivery otp")
		}
		if now.After(order.OTPExpiresAt) {
			return otpError(otpReasonExpired, "delivery otp has expired")
		}
		if order.OTPVerified {
			return otpError(otpReasonVerified, "delivery otp already verified")
		}

		from := order.Status
		fields, _, err := planTransition(order, enums.OrderStatusDelivered, now)
		if err != nil {
			return err
		}
		if fields == nil {
			fields = map[string]any{}
		}
		fields["otp_verified"] = true
		if err := s.writeFields(ctx, tx, order, fields); err != nil {
			return err
		}

		actor := &outbox.ActorRef{UserID: vendorID, Role: enums.RoleAdmin.String()}
		if err := s.emit(ctx, tx, enums.EventOrderDelivered, order.ID, actor, payloads.OrderDeliveredEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			VerifiedBy:  vendorID,
			DeliveredAt: now,
		}); err != nil {
			return err
		}
		if from != enums.OrderStatusDelivered {
			if err := s.emitStatusChanged(ctx, tx, order, from, vendorID, actor); err != nil {
				return err
			}
		}
		view = NewOrderView(order)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeOTP {
			if details, ok := typed.Details().(map[string]string); ok {
				s.metrics.IncOTPRejection(details["reason"])
			}
		}
		return nil, err
	}
	s.metrics.IncTransition(enums.OrderStatusDelivered.String())
	return view, nil
}

// ExpireStalePayments cancels gateway-paid orders whose payment never
// completed before cutoff. Each order is cancelled in its own transaction so
// one failure does not hold back the rest.
func (s *service) ExpireStalePayments(ctx context.Context, cutoff time.Time) (ExpireResult, error) {
	var result ExpireResult
	ids, err := s.repo.ListStalePaymentIDs(ctx, cutoff, enums.GatewayMethods(), staleBatchSize)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale payments")
	}
	result.Scanned = len(ids)

	var errs error
	for _, id := range ids {
		cancelled := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.lockOrder(ctx, tx, id)
			if err != nil {
				return err
			}
			if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
				return nil
			}
			cancelled, err = s.cancelLocked(ctx, tx, order, nil, stalePaymentReason)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		if cancelled {
			result.Cancelled++
			s.metrics.IncCancelled(cancelOriginExpiry)
		}
	}
	return result, errs
}

// cancelLocked restores stock for every line and marks order cancelled,
// reporting false when the order was already cancelled. The caller holds the
// row lock and owns the transaction.
func (s *service) cancelLocked(ctx context.Context, tx *gorm.DB, order *models.Order, actor *outbox.ActorRef, reason string) (bool, error) {
	ok, err := checkCancellable(order)
	if err != nil || !ok {
		return false, err
	}

	restored := 0
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return false, err
			}
			// the product was removed from the catalog after the order was placed
			if s.logg != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"order_id":   order.ID.String(),
					"product_id": item.ProductID.String(),
				}), "skipping stock restore for missing product")
			}
			continue
		}
		restored += item.Quantity
		lines = append(lines, orderLine(item))
	}

	from := order.Status
	now := s.now()
	fields := map[string]any{
		"status":              enums.OrderStatusCancelled,
		"cancelled_at":        now,
		"cancellation_reason": strPtr(reason),
	}
	if err := s.writeFields(ctx, tx, order, fields); err != nil {
		return false, err
	}

	var canceledBy uuid.UUID
	if actor != nil {
		canceledBy = actor.UserID
	}
	if err := s.emit(ctx, tx, enums.EventOrderCanceled, order.ID, actor, payloads.OrderCanceledEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		CanceledBy:  canceledBy,
		Reason:      reason,
		RestoredQty: restored,
		Lines:       lines,
		CanceledAt:  now,
	}); err != nil {
		return false, err
	}
	if err := s.notify(ctx, tx, order, enums.NotificationTypeOrderUpdate, "Order cancelled",
		fmt.Sprintf("Your order %s has been cancelled (was %s).", shortID(order.ID), from)); err != nil {
		return false, err
	}
	return true, nil
}

// recordPaymentLocked marks the payment completed and confirms a pending
// order. A second confirmation for a paid order changes nothing.
func (s *service) recordPaymentLocked(ctx context.Context, tx *gorm.DB, order *models.Order, fields map[string]any, actor *outbox.ActorRef) error {
	if order.Status == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled order cannot be paid")
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil
	}

	now := s.now()
	fields["payment_status"] = enums.PaymentStatusCompleted
	if order.Status == enums.OrderStatusPending {
		fields["status"] = enums.OrderStatusConfirmed
		fields["confirmed_at"] = now
	}
	if err := s.writeFields(ctx, tx, order, fields); err != nil {
		return err
	}

	event := payloads.OrderPaidEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		PaidAt:        now,
	}
	if order.PaymentTransactionID != nil {
		event.PaymentTransactionID = *order.PaymentTransactionID
	}
	if order.GatewayOrderID != nil {
		event.GatewayOrderID = *order.GatewayOrderID
	}
	if order.GatewayPaymentID != nil {
		event.GatewayPaymentID = *order.GatewayPaymentID
	}
	if err := s.emit(ctx, tx, enums.EventOrderPaid, order.ID, actor, event); err != nil {
		return err
	}
	return s.notify(ctx, tx, order, enums.NotificationTypePaymentUpdate, "Payment received",
		fmt.Sprintf("Payment of %s for order %s was received.", order.TotalAmount.StringFixed(2), shortID(order.ID)))
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, vendorID uuid.UUID, actor *outbox.ActorRef) error {
	if err := s.emit(ctx, tx, enums.EventOrderStatusChanged, order.ID, actor, payloads.OrderStatusChangedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		VendorID:   vendorID,
		FromStatus: from,
		ToStatus:   order.Status,
		ChangedAt:  order.UpdatedAt,
	}); err != nil {
		return err
	}
	return s.notify(ctx, tx, order, enums.NotificationTypeOrderUpdate, "Order update",
		fmt.Sprintf("Your order %s is now %s.", shortID(order.ID), order.Status))
}

func (s *service) writeFields(ctx context.Context, tx *gorm.DB, order *models.Order, fields map[string]any) error {
	fields["updated_at"] = s.now()
	if err := s.repo.WithTx(tx).UpdateFields(ctx, order.ID, fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	applyFields(order, fields)
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID uuid.UUID, actor *outbox.ActorRef, data any) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

func (s *service) notify(ctx context.Context, tx *gorm.DB, order *models.Order, kind enums.NotificationType, title, message string) error {
	orderID := order.ID
	err := s.notifier.NotifyTx(ctx, tx, payloads.NotificationRequestedEvent{
		UserID:  order.UserID,
		OrderID: &orderID,
		Type:    kind,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification")
	}
	return nil
}

func (s *service) lockOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return order, nil
}

func (s *service) ensureOwned(ctx context.Context, repo Repository, orderID, vendorID uuid.UUID) error {
	owned, err := repo.IsOwnedBy(ctx, orderID, vendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order ownership")
	}
	if !owned {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not contain your products")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func otpError(reason, msg string) error {
	return pkgerrors.New(pkgerrors.CodeOTP, msg).WithDetails(map[string]string{"reason": reason})
}

func orderLine(item models.OrderItem) payloads.OrderLine {
	return payloads.OrderLine{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Price:       item.Price,
	}
}

func strPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:notificationIDPrefixN])
}
