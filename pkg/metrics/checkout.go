package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks order confirmation outcomes and reservation expiry.
type CheckoutMetrics struct {
	confirmations *prometheus.CounterVec
	expired       prometheus.Counter
	stockRejects  prometheus.Counter
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations_total",
		Help: "Order confirmation attempts by outcome.",
	}, []string{"outcome"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reservations_expired_total",
		Help: "Unconfirmed buy-now bookings cancelled on expiry.",
	})
	stockRejects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_stock_rejections_total",
		Help: "Confirmations rolled back due to insufficient stock.",
	})
	reg.MustRegister(confirmations, expired, stockRejects)
	return &CheckoutMetrics{
		confirmations: confirmations,
		expired:       expired,
		stockRejects:  stockRejects,
	}
}

// IncConfirmation records a confirmation attempt with the given outcome.
func (m *CheckoutMetrics) IncConfirmation(outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncExpired records one expired reservation cancellation.
func (m *CheckoutMetrics) IncExpired() {
	if m == nil || m.expired == nil {
		return
	}
	m.expired.Inc()
}

// IncStockRejection records a confirmation rejected for lack of stock.
func (m *CheckoutMetrics) IncStockRejection() {
	if m == nil || m.stockRejects == nil {
		return
	}
	m.stockRejects.Inc()
}
