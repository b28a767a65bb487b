package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ruteri/registrar-controller/interfaces"
)

var (
	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "registrar",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Number of contract calls handled by the gateway",
		},
		[]string{"method", "kind", "outcome"},
	)

	gatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "registrar",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Latency of contract calls handled by the gateway",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		gatewayCalls,
		gatewayCallDuration,
	)
}

func observeCall(method, kind string, start time.Time, err error) {
	gatewayCalls.WithLabelValues(method, kind, outcome(err)).Inc()
	gatewayCallDuration.WithLabelValues(method, kind).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, interfaces.ErrConstruction):
		return "construction_error"
	case errors.Is(err, interfaces.ErrDecode):
		return "decode_error"
	default:
		return "call_error"
	}
}
