package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/internal/notifications"
	"github.com/angelmondragon/orderflow-backend/internal/orders"
	"github.com/angelmondragon/orderflow-backend/internal/profiles"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/metrics"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentConfirmer interface {
	ConfirmTestModePayment(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error)
}

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, c notifications.OrderConfirmation) error
}

// Service turns a user's cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.OrderView, error)
	Preview(ctx context.Context, userID uuid.UUID) (*orders.OrderView, error)
}

// PlaceOrderInput carries the buyer's checkout choices. Shipping is only read
// when UseProfileAddress is false.
type PlaceOrderInput struct {
	UserID            uuid.UUID
	PaymentMethod     enums.PaymentMethod
	UseProfileAddress bool
	Shipping          models.ShippingAddress
	OrderNotes        *string
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx            txRunner
	Carts         cart.CartRepository
	Orders        orders.Repository
	Profiles      profiles.Provider
	Stock         stockReserver
	Outbox        outboxPublisher
	Payments      paymentConfirmer
	Notifications confirmationSender
	Policy        Policy
	Metrics       *metrics.OrderMetrics
	Logger        *logger.Logger
}

type service struct {
	tx       txRunner
	carts    cart.CartRepository
	orders   orders.Repository
	profiles profiles.Provider
	stock    stockReserver
	outbox   outboxPublisher
	payments paymentConfirmer
	notify   confirmationSender
	policy   Policy
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
	otp      func() (string, error)
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Profiles == nil:
		return nil, fmt.Errorf("profile provider required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock reserver required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payment confirmer required")
	case deps.Notifications == nil:
		return nil, fmt.Errorf("notification sender required")
	case deps.Policy.OTPValidity() <= 0:
		return nil, fmt.Errorf("checkout policy required")
	}
	return &service{
		tx:       deps.Tx,
		carts:    deps.Carts,
		orders:   deps.Orders,
		profiles: deps.Profiles,
		stock:    deps.Stock,
		outbox:   deps.Outbox,
		payments: deps.Payments,
		notify:   deps.Notifications,
		policy:   deps.Policy,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
		otp:      GenerateOTP,
	}, nil
}

// PlaceOrder reserves stock, writes the order and clears the cart in one
// transaction. Test-mode payment settlement and the confirmation notification
// run afterwards and never fail the placement.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.OrderView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		record, err := s.loadCart(ctx, cartRepo.FindByUserForUpdate, input.UserID)
		if err != nil {
			return err
		}

		shipping, err := s.resolveShipping(ctx, input)
		if err != nil {
			return err
		}

		for _, item := range reservationOrder(record.Items) {
			if err := s.stock.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		otp, err := s.otp()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery otp")
		}

		now := s.now()
		order = s.buildOrder(input, record.Items, shipping, otp, now)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		cleared, err := cartRepo.ClearItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if cleared != int64(len(record.Items)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart already processed")
		}
		if err := cartRepo.Touch(ctx, record.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}

		return s.emitOrderCreated(ctx, tx, order)
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}
	s.metrics.IncPlaced(order.PaymentMethod.String())

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(s.logg.WithUserID(ctx, input.UserID.String()), order.ID.String())
		s.logg.Info(logCtx, "order placed")
	}

	if s.policy.IsTestModeGateway(order.PaymentMethod) {
		txnID := fmt.Sprintf("%s_test_%d", strings.ToLower(order.PaymentMethod.String()), s.now().UnixMilli())
		paid, err := s.payments.ConfirmTestModePayment(ctx, order.ID, txnID)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "test mode payment confirmation failed")
			}
		} else {
			order = paid
		}
	}

	if err := s.notify.SendOrderConfirmation(ctx, confirmationFor(order)); err != nil && s.logg != nil {
		s.logg.Error(logCtx, "order confirmation notification failed", err)
	}

	return orders.NewOrderView(order), nil
}

// Preview prices the current cart as an order without writing anything.
func (s *service) Preview(ctx context.Context, userID uuid.UUID) (*orders.OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.loadCart(ctx, s.carts.FindByUser, userID)
	if err != nil {
		return nil, err
	}

	totals := s.policy.Totals(record.Items)
	items := make([]orders.ItemView, 0, len(record.Items))
	for _, item := range record.Items {
		view := orders.ItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.PriceAtAdd,
			Subtotal:  cart.LineSubtotal(item),
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
			view.ImageURL = item.Product.ImageURL
		}
		items = append(items, view)
	}
	return &orders.OrderView{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCharges: totals.Shipping,
		TotalAmount:     totals.Total,
		TotalItems:      totals.TotalItems,
		CreatedAt:       s.now(),
	}, nil
}

type cartLoader func(ctx context.Context, userID uuid.UUID) (*models.Cart, error)

// loadCart returns the user's cart, treating a missing cart as empty.
func (s *service) loadCart(ctx context.Context, load cartLoader, userID uuid.UUID) (*models.Cart, error) {
	record, err := load(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record == nil || len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
			WithDetails(map[string]any{"reason": "cart_empty"})
	}
	return record, nil
}

// reservationOrder returns the lines sorted by product id so concurrent
// checkouts lock product rows in the same order.
func reservationOrder(lines []models.CartItem) []models.CartItem {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b models.CartItem) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return sorted
}

func (s *service) resolveShipping(ctx context.Context, input PlaceOrderInput) (models.ShippingAddress, error) {
	if input.UseProfileAddress {
		profile, err := s.profiles.GetShippingProfile(ctx, input.UserID)
		if err != nil {
			return models.ShippingAddress{}, err
		}
		return profile.Address, nil
	}

	shipping := input.Shipping
	shipping.FullName = strings.TrimSpace(shipping.FullName)
	shipping.Address = strings.TrimSpace(shipping.Address)
	shipping.City = strings.TrimSpace(shipping.City)
	shipping.State = strings.TrimSpace(shipping.State)
	shipping.Pincode = strings.TrimSpace(shipping.Pincode)
	shipping.Phone = strings.TrimSpace(shipping.Phone)
	if missing := profiles.MissingFields(shipping); len(missing) > 0 {
		return models.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	return shipping, nil
}

func (s *service) buildOrder(input PlaceOrderInput, lines []models.CartItem, shipping models.ShippingAddress, otp string, now time.Time) *models.Order {
	totals := s.policy.Totals(lines)
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCharges: totals.Shipping,
		TotalAmount:     totals.Total,
		Shipping:        shipping,
		OrderNotes:      notes(input.OrderNotes),
		DeliveryOTP:     otp,
		OTPGeneratedAt:  now,
		OTPExpiresAt:    now.Add(s.policy.OTPValidity()),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		item := models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.PriceAtAdd,
			Subtotal:  cart.LineSubtotal(line),
			CreatedAt: now,
		}
		if line.Product != nil {
			item.ProductName = line.Product.Name
			item.ProductImageURL = line.Product.ImageURL
		}
		order.Items = append(order.Items, item)
	}
	return order
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: enums.RoleUser.String()},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			PaymentMethod: order.PaymentMethod,
			TotalAmount:   order.TotalAmount,
			Lines:         orderLines(order.Items),
			CreatedAt:     order.CreatedAt,
		},
		Version: 1,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order_created")
	}
	return nil
}

func (s *service) recordFailure(err error) {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	if code == pkgerrors.CodeConflict {
		s.metrics.IncStockConflict()
	}
	s.metrics.IncPlaceFailure(string(code))
}

func confirmationFor(order *models.Order) notifications.OrderConfirmation {
	return notifications.OrderConfirmation{
		UserID:        order.UserID,
		OrderID:       order.ID,
		OTP:           order.DeliveryOTP,
		Items:         orderLines(order.Items),
		Shipping:      order.Shipping,
		Total:         order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	}
}

func orderLines(items []models.OrderItem) []payloads.OrderLine {
	lines := make([]payloads.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, payloads.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return lines
}

func notes(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
