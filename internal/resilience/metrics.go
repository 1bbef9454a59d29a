package resilience

import "github.com/prometheus/client_golang/prometheus"

var breakerTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "breaker_transition_total",
		Help: "Count of circuit breaker state transitions.",
	},
	[]string{"target", "from", "to"},
)

func init() {
	prometheus.MustRegister(breakerTransitions)
}

func recordTransition(target string, from, to State) {
	if target == "" {
		target = "unknown"
	}
	breakerTransitions.WithLabelValues(target, from.String(), to.String()).Inc()
}
