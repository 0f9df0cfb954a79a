package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

// PlatformMetrics tracks the economic activity of the round state machine.
type PlatformMetrics struct {
	roundStarts *prometheus.CounterVec
	purchases   prometheus.Counter
	orderFills  prometheus.Counter
	weiVolume   *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	platformMetricsOnce sync.Once
	platformRegistry    *PlatformMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total RPC module errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "acdm",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit" so dashboards
// and alerts remain consistent.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// Platform returns the singleton metrics registry for round and order-book
// activity.
func Platform() *PlatformMetrics {
	platformMetricsOnce.Do(func() {
		platformRegistry = &PlatformMetrics{
			roundStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "platform",
				Name:      "round_starts_total",
				Help:      "Count of round transitions segmented by round kind.",
			}, []string{"kind"}),
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "platform",
				Name:      "purchases_total",
				Help:      "Count of sale-round purchases.",
			}),
			orderFills: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "platform",
				Name:      "order_fills_total",
				Help:      "Count of trade-round order fills, partial or full.",
			}),
			weiVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "acdm",
				Subsystem: "platform",
				Name:      "wei_volume_total",
				Help:      "Wei moved through the platform segmented by flow.",
			}, []string{"flow"}),
		}
		prometheus.MustRegister(
			platformRegistry.roundStarts,
			platformRegistry.purchases,
			platformRegistry.orderFills,
			platformRegistry.weiVolume,
		)
	})
	return platformRegistry
}

// RecordRoundStart counts a round transition; kind is "sale" or "trade".
func (p *PlatformMetrics) RecordRoundStart(kind string) {
	if p == nil {
		return
	}
	p.roundStarts.WithLabelValues(kind).Inc()
}

// RecordPurchase counts one sale-round purchase and its spent wei.
func (p *PlatformMetrics) RecordPurchase(spentWei float64) {
	if p == nil {
		return
	}
	p.purchases.Inc()
	p.weiVolume.WithLabelValues("sale").Add(spentWei)
}

// RecordOrderFill counts one order fill and its cost in wei.
func (p *PlatformMetrics) RecordOrderFill(costWei float64) {
	if p == nil {
		return
	}
	p.orderFills.Inc()
	p.weiVolume.WithLabelValues("trade").Add(costWei)
}
