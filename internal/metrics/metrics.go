package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var GatewayCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "webpay",
		Name:      "gateway_calls_total",
		Help:      "Transbank gateway calls by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

var ReturnOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "webpay",
		Name:      "return_outcomes_total",
		Help:      "Webpay return callbacks by resulting transaction status.",
	},
	[]string{"status"},
)

// ObserveGatewayCall counts one gateway call; a nil err counts as success.
func ObserveGatewayCall(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	GatewayCalls.WithLabelValues(operation, outcome).Inc()
}
