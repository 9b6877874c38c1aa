package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order lifecycle outcomes.
type OrderMetrics struct {
	placed         *prometheus.CounterVec
	placeFailures  *prometheus.CounterVec
	stockConflicts prometheus.Counter
	cancelled      *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	otpRejections  *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_orders_placed_total",
			Help: "Orders placed, by payment method.",
		}, []string{"payment_method"}),
		placeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_order_place_failures_total",
			Help: "Rejected order placements, by error code.",
		}, []string{"code"}),
		stockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_stock_conflicts_total",
			Help: "Stock reservations refused for insufficient stock.",
		}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_orders_cancelled_total",
			Help: "Orders cancelled, by origin.",
		}, []string{"origin"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_order_status_transitions_total",
			Help: "Applied order status transitions, by target status.",
		}, []string{"status"}),
		otpRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_delivery_otp_rejections_total",
			Help: "Delivery OTP verifications refused, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.placed, m.placeFailures, m.stockConflicts, m.cancelled, m.transitions, m.otpRejections)
	return m
}

func (m *OrderMetrics) IncPlaced(paymentMethod string) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (m *OrderMetrics) IncPlaceFailure(code string) {
	if m == nil || m.placeFailures == nil {
		return
	}
	m.placeFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *OrderMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

func (m *OrderMetrics) IncCancelled(origin string) {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.WithLabelValues(normalizeLabel(origin)).Inc()
}

func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) IncOTPRejection(reason string) {
	if m == nil || m.otpRejections == nil {
		return
	}
	m.otpRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}
