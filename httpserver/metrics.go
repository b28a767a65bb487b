package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruteri/registrar-controller/common"
)

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "registrar",
		Name:      "build_info",
		Help:      "Build information of the running binary",
	},
	[]string{"package", "version"},
)

func init() {
	prometheus.MustRegister(buildInfo)
	buildInfo.WithLabelValues(common.PackageName, common.Version).Set(1)
}

// newMetricsServer serves the default registry, which carries the gateway
// call metrics, on /metrics.
func newMetricsServer(addr string) *http.Server {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
