package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/angeloszaimis/remotelog/internal/circuitbreaker"
	"github.com/angeloszaimis/remotelog/pkg/logger"
	"github.com/angeloszaimis/remotelog/pkg/metrics"
)

const (
	ContentType     = "application/json; charset=utf-8"
	HeaderEventID   = "X-Log-Event-Id"
	HeaderTimestamp = "X-Log-Timestamp"
)

var (
	ErrClosed      = errors.New("transport closed")
	ErrQueueFull   = errors.New("send queue full")
	ErrCircuitOpen = errors.New("endpoint circuit open")
	ErrRateLimited = errors.New("send rate limit exceeded")
)

// Event is one serialized log event bound for an endpoint.
type Event struct {
	Endpoint string
	Body     []byte
	// Timestamp is the capture time in milliseconds since the epoch. It is
	// sent as a header, never inside Body.
	Timestamp int64
	Level     string
}

type delivery struct {
	req   *http.Request
	event Event
}

// HTTP posts events to their endpoint from a fixed pool of workers. Send
// only enqueues; the outcome of a delivery is never reported to the caller.
type HTTP struct {
	client    *http.Client
	timeout   time.Duration
	headers   map[string]string
	queueSize int
	workers   int
	limiter   *rate.Limiter
	breakers  *circuitbreaker.Registry
	recorder  metrics.Recorder
	logger    *slog.Logger

	mutex  sync.RWMutex
	closed bool
	queue  chan delivery
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New starts the worker pool right away.
func New(opts ...Option) *HTTP {
	t := &HTTP{
		client:    cleanhttp.DefaultPooledClient(),
		timeout:   defaultTimeout,
		queueSize: defaultQueueSize,
		workers:   defaultWorkers,
		breakers:  circuitbreaker.NewRegistry(defaultFailureThreshold, defaultResetTimeout),
		recorder:  metrics.Discard,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.queueSize < 1 {
		t.queueSize = defaultQueueSize
	}
	if t.workers < 1 {
		t.workers = defaultWorkers
	}
	if t.timeout > 0 {
		client := *t.client
		client.Timeout = t.timeout
		t.client = &client
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.queue = make(chan delivery, t.queueSize)

	t.wg.Add(t.workers)
	for i := 0; i < t.workers; i++ {
		go t.work()
	}

	return t
}

// Send validates the event and hands it to a worker. The returned error
// only covers failing to start the send: a bad endpoint, a closed
// transport, an open circuit, the rate limit or a full queue. The circuit
// is checked before the limiter so rejected sends do not spend tokens.
func (t *HTTP) Send(event Event) error {
	req, err := t.newRequest(event)
	if err != nil {
		t.reject(event.Endpoint, "invalid_request")
		return errors.Wrap(err, "transport: build request")
	}

	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.closed {
		t.reject(event.Endpoint, "closed")
		return ErrClosed
	}

	if t.breakers != nil && !t.breakers.ForEndpoint(event.Endpoint).Allow() {
		t.reject(event.Endpoint, "circuit_open")
		return errors.Wrap(ErrCircuitOpen, event.Endpoint)
	}

	if t.limiter != nil && !t.limiter.Allow() {
		t.reject(event.Endpoint, "rate_limited")
		return ErrRateLimited
	}

	select {
	case t.queue <- delivery{req: req, event: event}:
		t.recorder.Record(metrics.Event{
			Type:     metrics.EventSendInitiated,
			Level:    event.Level,
			Endpoint: event.Endpoint,
		})
		return nil
	default:
		t.reject(event.Endpoint, "queue_full")
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// If ctx expires first, in-flight requests are aborted and ctx.Err() is
// returned.
func (t *HTTP) Close(ctx context.Context) error {
	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return nil
	}
	t.closed = true
	close(t.queue)
	t.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		return ctx.Err()
	}
}

// BreakerStatus describes one endpoint's circuit breaker.
type BreakerStatus struct {
	State       string     `json:"state"`
	Failures    int        `json:"failures"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
}

// Breakers reports the breaker of every endpoint seen so far. It is empty
// when breaking is disabled.
func (t *HTTP) Breakers() map[string]BreakerStatus {
	out := make(map[string]BreakerStatus)
	if t.breakers == nil {
		return out
	}

	for endpoint, status := range t.breakers.Statuses() {
		view := BreakerStatus{
			State:    status.State.String(),
			Failures: status.Failures,
		}
		if !status.LastFailure.IsZero() {
			last := status.LastFailure
			view.LastFailure = &last
		}
		out[endpoint] = view
	}
	return out
}

func (t *HTTP) newRequest(event Event) (*http.Request, error) {
	if event.Endpoint == "" {
		return nil, errors.New("empty endpoint")
	}

	req, err := http.NewRequest(http.MethodPost, event.Endpoint, bytes.NewReader(event.Body))
	if err != nil {
		return nil, err
	}

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(HeaderEventID, uuid.NewString())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(event.Timestamp, 10))

	return req, nil
}

func (t *HTTP) work() {
	defer t.wg.Done()

	for d := range t.queue {
		t.deliver(d)
	}
}

func (t *HTTP) deliver(d delivery) {
	endpoint := d.event.Endpoint
	start := time.Now()

	res, err := t.client.Do(d.req.WithContext(t.ctx))
	elapsed := time.Since(start)

	if err != nil {
		t.recordFailure(endpoint)
		t.recorder.Record(metrics.Event{
			Type:     metrics.EventDeliveryFailed,
			Level:    d.event.Level,
			Endpoint: endpoint,
			Reason:   err.Error(),
			Duration: elapsed,
		})
		t.logger.Debug("log delivery failed",
			slog.String("endpoint", endpoint),
			slog.String("event_id", d.req.Header.Get(HeaderEventID)),
			slog.String("error", err.Error()))
		return
	}

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	if failedStatus(res.StatusCode) {
		t.recordFailure(endpoint)
		t.logger.Debug("log endpoint rejected event",
			slog.String("endpoint", endpoint),
			slog.String("event_id", d.req.Header.Get(HeaderEventID)),
			slog.Int("status", res.StatusCode))
	} else if t.breakers != nil {
		t.breakers.ForEndpoint(endpoint).RecordSuccess()
	}

	t.recorder.Record(metrics.Event{
		Type:       metrics.EventDeliveryCompleted,
		Level:      d.event.Level,
		Endpoint:   endpoint,
		Duration:   elapsed,
		StatusCode: res.StatusCode,
	})
}

func (t *HTTP) recordFailure(endpoint string) {
	if t.breakers != nil {
		t.breakers.ForEndpoint(endpoint).RecordFailure()
	}
}

func (t *HTTP) reject(endpoint, reason string) {
	t.recorder.Record(metrics.Event{
		Type:     metrics.EventSendRejected,
		Endpoint: endpoint,
		Reason:   reason,
	})
}

// failedStatus counts against the endpoint's breaker. Other 4xx responses
// mean the endpoint is up and merely disliked the event.
func failedStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}
