package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	ItemsAdded           prometheus.Counter
	ItemsRemoved         prometheus.Counter
	CouponsApplied       prometheus.Counter
	CouponRejections     *prometheus.CounterVec
	SnapshotSaveFailures prometheus.Counter
	SnapshotLoadFailures prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates all metrics registered against the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics registered against the given registerer. Tests
// pass a fresh registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "trolley_cart_items_added_total",
			Help: "Total line-item additions across all carts",
		}),
		ItemsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "trolley_cart_items_removed_total",
			Help: "Total line-item removals across all carts",
		}),
		CouponsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "trolley_coupons_applied_total",
			Help: "Total successful coupon applications",
		}),
		CouponRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trolley_coupon_rejections_total",
			Help: "Coupon validation rejections by reason code",
		}, []string{"reason"}),
		SnapshotSaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trolley_snapshot_save_failures_total",
			Help: "Cart snapshot writes that failed; durability is best-effort",
		}),
		SnapshotLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trolley_snapshot_load_failures_total",
			Help: "Cart snapshot loads that failed or were corrupt",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trolley_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncCouponRejection records one rejection for the given reason code.
// Nil-safe so services can run without metrics in tests.
func (m *Metrics) IncCouponRejection(reason string) {
	if m == nil {
		return
	}
	m.CouponRejections.WithLabelValues(reason).Inc()
}
