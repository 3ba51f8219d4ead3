package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RouteRequestsTotal counts routed payment/payout requests by outcome.
	RouteRequestsTotal *prometheus.CounterVec
	// RouteFallbackTotal counts requests that reached the fallback gateway
	// because no configured gateway was eligible.
	RouteFallbackTotal *prometheus.CounterVec
	// RouteValidationFailures counts requests rejected before gateway selection.
	RouteValidationFailures *prometheus.CounterVec
	// DispatchDuration records adapter dispatch latency in milliseconds.
	DispatchDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers routing-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RouteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Count of routed requests by operation, selected gateway and result.",
		}, []string{"operation", "gateway", "result"})
		RouteFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fallback_total",
			Help:      "Count of requests routed to the fallback gateway with an empty candidate set.",
		}, []string{"operation"})
		RouteValidationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_validation_failures_total",
			Help:      "Count of requests rejected by validation before dispatch.",
		}, []string{"operation", "code"})
		DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_ms",
			Help:      "Latency of gateway adapter dispatch in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation", "gateway"})
		reg.MustRegister(RouteRequestsTotal, RouteFallbackTotal, RouteValidationFailures, DispatchDuration)
	})
}
