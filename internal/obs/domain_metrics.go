package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersTotal counts confirmed orders.
	OrdersTotal prometheus.Counter
	// PaymentIntentTotal counts payment intent creation outcomes.
	PaymentIntentTotal *prometheus.CounterVec
	// PaymentConfirmTotal counts payment confirmation outcomes.
	PaymentConfirmTotal *prometheus.CounterVec
	// CouponRejectionsTotal counts coupon evaluation rejections by reason.
	CouponRejectionsTotal *prometheus.CounterVec
	// CartSyncTotal counts cart snapshot write-back outcomes.
	CartSyncTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersTotal = register[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Count of confirmed orders.",
		}))
		PaymentIntentTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent creation outcomes.",
		}, []string{"result"}))
		PaymentConfirmTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirm_total",
			Help:      "Count of payment confirmation outcomes.",
		}, []string{"result"}))
		CouponRejectionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_rejections_total",
			Help:      "Count of rejected coupon evaluations by reason.",
		}, []string{"reason"}))
		CartSyncTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sync_total",
			Help:      "Count of cart snapshot write-back outcomes.",
		}, []string{"result"}))
	})
}
