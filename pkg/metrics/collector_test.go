package metrics_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/remotelog/pkg/metrics"
)

var _ = Describe("Collector", func() {
	const endpoint = "https://logs.example/ingest"

	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	It("should satisfy Recorder", func() {
		var _ metrics.Recorder = collector
		metrics.Discard.Record(metrics.Event{Type: metrics.EventLogCall})
	})

	Describe("event processing", func() {
		BeforeEach(func() {
			collector.Start(ctx)
		})

		It("should count log calls per level", func() {
			collector.Record(metrics.Event{Type: metrics.EventLogCall, Level: "warn"})
			collector.Record(metrics.Event{Type: metrics.EventLogCall, Level: "warn"})

			Eventually(func() int64 {
				return collector.Snapshot().Calls["warn"]
			}).Should(Equal(int64(2)))
		})

		It("should count console writes and suppressed sends", func() {
			collector.Record(metrics.Event{Type: metrics.EventConsoleWritten})
			collector.Record(metrics.Event{Type: metrics.EventSendSuppressed})

			Eventually(func() int64 {
				return collector.Snapshot().ConsoleWrites
			}).Should(Equal(int64(1)))
			Eventually(func() int64 {
				return collector.Snapshot().SendsSuppressed
			}).Should(Equal(int64(1)))
		})

		It("should aggregate delivery events per endpoint", func() {
			collector.Record(metrics.Event{Type: metrics.EventSendInitiated, Endpoint: endpoint})
			collector.Record(metrics.Event{
				Type:       metrics.EventDeliveryCompleted,
				Endpoint:   endpoint,
				Duration:   20 * time.Millisecond,
				StatusCode: 202,
			})
			collector.Record(metrics.Event{
				Type:     metrics.EventDeliveryFailed,
				Endpoint: endpoint,
				Reason:   "connection refused",
			})
			collector.Record(metrics.Event{
				Type:     metrics.EventSendRejected,
				Endpoint: endpoint,
				Reason:   "circuit_open",
			})

			Eventually(func() metrics.EndpointMetrics {
				return collector.Snapshot().Endpoints[endpoint]
			}).Should(SatisfyAll(
				HaveField("Initiated", int64(1)),
				HaveField("Delivered", int64(1)),
				HaveField("Failed", int64(1)),
				HaveField("Rejected", HaveKeyWithValue("circuit_open", int64(1))),
				HaveField("StatusCodes", HaveKeyWithValue(202, int64(1))),
			))
		})
	})

	Describe("backpressure", func() {
		It("should drop events instead of blocking when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			small.Record(metrics.Event{Type: metrics.EventLogCall, Level: "info"})
			small.Record(metrics.Event{Type: metrics.EventLogCall, Level: "info"})
			small.Record(metrics.Event{Type: metrics.EventLogCall, Level: "info"})

			Expect(small.Snapshot().DroppedEvents).To(Equal(int64(2)))
		})
	})

	Describe("shutdown", func() {
		It("should drain buffered events when the context is cancelled", func() {
			for i := 0; i < 10; i++ {
				collector.Record(metrics.Event{Type: metrics.EventLogCall, Level: "error"})
			}
			cancel()
			collector.Start(ctx)

			Eventually(func() int64 {
				return collector.Snapshot().Calls["error"]
			}).Should(Equal(int64(10)))
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Record(metrics.Event{Type: metrics.EventLogCall, Level: "info"})
			Eventually(func() int64 {
				return collector.Snapshot().Calls["info"]
			}).Should(Equal(int64(1)))

			rec := httptest.NewRecorder()
			collector.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.Calls).To(HaveKeyWithValue("info", int64(1)))
		})
	})
})
