package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pay_gateway_breaker_state",
			Help: "Current breaker state per gateway: 0=closed,1=open,2=half-open",
		},
		[]string{"gateway"},
	)
	breakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_gateway_breaker_transition_total",
			Help: "Count of breaker state transitions per gateway",
		},
		[]string{"gateway", "from", "to"},
	)
)

func init() {
	prometheus.MustRegister(breakerState, breakerTransitions)
}

func recordTransition(gateway string, from, to State) {
	breakerTransitions.WithLabelValues(gateway, from.String(), to.String()).Inc()
	breakerState.WithLabelValues(gateway).Set(float64(to))
}
