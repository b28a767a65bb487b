package api

import (
	"log/slog"
	"time"
)

// DefaultMaxRequestBodySize bounds JSON request bodies when the config leaves it unset.
const DefaultMaxRequestBodySize = 64 * 1024

// HTTPServerConfig contains all configuration parameters for the registrar HTTP server.
type HTTPServerConfig struct {
	// ListenAddr is the address and port the API listens on.
	ListenAddr string

	// MetricsAddr is the address of the Prometheus listener.
	// If empty, metrics are not served.
	MetricsAddr string

	// EnablePprof mounts the pprof handlers under /debug.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long /drain keeps the server unready before the
	// drain is reported complete, so load balancers can notice.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds in-flight requests on shutdown.
	GracefulShutdownDuration time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxRequestBodySize caps request bodies in bytes.
	MaxRequestBodySize int64
}

// BodyLimit returns the effective request body cap.
func (c *HTTPServerConfig) BodyLimit() int64 {
	if c.MaxRequestBodySize <= 0 {
		return DefaultMaxRequestBodySize
	}
	return c.MaxRequestBodySize
}
