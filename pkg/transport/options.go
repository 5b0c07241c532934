package transport

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/angeloszaimis/remotelog/internal/circuitbreaker"
	"github.com/angeloszaimis/remotelog/pkg/metrics"
)

const (
	defaultQueueSize        = 256
	defaultWorkers          = 4
	defaultTimeout          = 10 * time.Second
	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithClient replaces the pooled default client. A timeout set with
// WithTimeout still applies on top of it.
func WithClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTimeout bounds a single POST, including reading the response. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) { t.timeout = d }
}

// WithQueueSize sets how many events may wait for a worker. Default: 256.
func WithQueueSize(n int) Option {
	return func(t *HTTP) { t.queueSize = n }
}

// WithWorkers sets the number of concurrent senders. Default: 4.
func WithWorkers(n int) Option {
	return func(t *HTTP) { t.workers = n }
}

// WithRateLimit caps sends per second with the given burst. Sends over the
// limit fail with ErrRateLimited. Default: unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *HTTP) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCircuitBreaker opens an endpoint's breaker after threshold consecutive
// failed deliveries and keeps it open for reset. A threshold below one
// disables the breaker. Default: 5 failures, 30s.
func WithCircuitBreaker(threshold int, reset time.Duration) Option {
	return func(t *HTTP) {
		if threshold < 1 {
			t.breakers = nil
			return
		}
		t.breakers = circuitbreaker.NewRegistry(threshold, reset)
	}
}

// WithMetrics reports send and delivery outcomes to r.
func WithMetrics(r metrics.Recorder) Option {
	return func(t *HTTP) {
		if r != nil {
			t.recorder = r
		}
	}
}

// WithLogger sets the diagnostics logger. Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTP) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithHeaders adds headers to every POST. They cannot override Content-Type.
func WithHeaders(h map[string]string) Option {
	return func(t *HTTP) { t.headers = h }
}
