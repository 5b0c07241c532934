package metrics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/remotelog/pkg/logger"
)

type EventType string

const (
	EventLogCall           EventType = "log_call"
	EventConsoleWritten    EventType = "console_written"
	EventSendSuppressed    EventType = "send_suppressed"
	EventSendInitiated     EventType = "send_initiated"
	EventSendRejected      EventType = "send_rejected"
	EventDeliveryCompleted EventType = "delivery_completed"
	EventDeliveryFailed    EventType = "delivery_failed"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	Level      string
	Endpoint   string
	Reason     string
	Duration   time.Duration
	StatusCode int
}

// Recorder is what the logger and the transport report to. A nil Recorder
// is never called; use Discard when a value is required.
type Recorder interface {
	Record(event Event)
}

type discard struct{}

func (discard) Record(Event) {}

// Discard drops every event.
var Discard Recorder = discard{}

type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
	dropped atomic.Int64
}

func NewCollector(bufferSize int, log *slog.Logger) *Collector {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  log,
	}
}

// Record enqueues an event without blocking. Events that do not fit in the
// buffer are counted and dropped so the log path never waits on metrics.
func (c *Collector) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventLogCall:
		c.metrics.IncrementCalls(event.Level)

	case EventConsoleWritten:
		c.metrics.IncrementConsoleWrites()

	case EventSendSuppressed:
		c.metrics.IncrementSuppressed()

	case EventSendInitiated:
		c.metrics.RecordInitiated(event.Endpoint)

	case EventSendRejected:
		c.metrics.RecordRejected(event.Endpoint, event.Reason)

	case EventDeliveryCompleted:
		c.metrics.RecordDelivery(event.Endpoint, event.Duration, event.StatusCode)

	case EventDeliveryFailed:
		c.metrics.RecordFailure(event.Endpoint, event.Duration)
		c.logger.Debug("log delivery failed",
			slog.String("endpoint", event.Endpoint),
			slog.String("reason", event.Reason))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	snap := c.metrics.Snapshot()
	snap.DroppedEvents = c.dropped.Load()
	return snap
}
