package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/remotelog/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	const endpoint = "https://logs.example/ingest"

	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementCalls", func() {
		It("should count calls per level", func() {
			m.IncrementCalls("info")
			m.IncrementCalls("info")
			m.IncrementCalls("fatal")

			snap := m.Snapshot()
			Expect(snap.Calls).To(Equal(map[string]int64{"info": 2, "fatal": 1}))
		})
	})

	Describe("console and suppression counters", func() {
		It("should count console writes and suppressed sends", func() {
			m.IncrementConsoleWrites()
			m.IncrementConsoleWrites()
			m.IncrementSuppressed()

			snap := m.Snapshot()
			Expect(snap.ConsoleWrites).To(Equal(int64(2)))
			Expect(snap.SendsSuppressed).To(Equal(int64(1)))
		})
	})

	Describe("endpoint counters", func() {
		It("should track initiated, rejected, delivered and failed sends", func() {
			m.RecordInitiated(endpoint)
			m.RecordInitiated(endpoint)
			m.RecordRejected(endpoint, "queue_full")
			m.RecordDelivery(endpoint, 100*time.Millisecond, 200)
			m.RecordFailure(endpoint, 300*time.Millisecond)

			em := m.Snapshot().Endpoints[endpoint]
			Expect(em.Initiated).To(Equal(int64(2)))
			Expect(em.Rejected).To(HaveKeyWithValue("queue_full", int64(1)))
			Expect(em.Delivered).To(Equal(int64(1)))
			Expect(em.Failed).To(Equal(int64(1)))
			Expect(em.StatusCodes).To(HaveKeyWithValue(200, int64(1)))
			Expect(em.AvgResponse).To(Equal(200 * time.Millisecond))
		})

		It("should track endpoints separately", func() {
			m.RecordInitiated(endpoint)
			m.RecordInitiated("https://audit.example/ingest")

			snap := m.Snapshot()
			Expect(snap.Endpoints).To(HaveLen(2))
		})
	})

	Describe("percentiles", func() {
		It("should compute latency percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordDelivery(endpoint, time.Duration(i)*time.Millisecond, 202)
			}

			em := m.Snapshot().Endpoints[endpoint]
			Expect(em.P50Response).To(Equal(51 * time.Millisecond))
			Expect(em.P95Response).To(Equal(96 * time.Millisecond))
			Expect(em.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should cap the number of retained samples", func() {
			for i := 0; i < 1100; i++ {
				m.RecordDelivery(endpoint, time.Second, 200)
			}
			m.RecordDelivery(endpoint, time.Second, 200)

			em := m.Snapshot().Endpoints[endpoint]
			Expect(em.Delivered).To(Equal(int64(1101)))
			Expect(em.AvgResponse).To(Equal(time.Second))
		})
	})

	Describe("Snapshot", func() {
		It("should not share maps with the live metrics", func() {
			m.IncrementCalls("warn")
			snap := m.Snapshot()
			m.IncrementCalls("warn")

			Expect(snap.Calls["warn"]).To(Equal(int64(1)))
		})

		It("should report uptime", func() {
			time.Sleep(5 * time.Millisecond)
			Expect(m.Snapshot().Uptime).To(BeNumerically(">=", 5*time.Millisecond))
		})
	})
})
