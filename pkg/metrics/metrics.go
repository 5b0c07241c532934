package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxResponseSamples = 1000

type endpointStats struct {
	initiated     int64
	delivered     int64
	failed        int64
	rejected      map[string]int64
	responseTimes []time.Duration
	statusCodes   map[int]int64
}

// Metrics holds the aggregated counters. It is safe for concurrent use but
// is normally only written by a Collector.
type Metrics struct {
	mutex         sync.RWMutex
	calls         map[string]int64
	consoleWrites int64
	suppressed    int64
	endpoints     map[string]*endpointStats
	startTime     time.Time
}

type Snapshot struct {
	Uptime          time.Duration              `json:"uptime"`
	Calls           map[string]int64           `json:"calls"`
	ConsoleWrites   int64                      `json:"console_writes"`
	SendsSuppressed int64                      `json:"sends_suppressed"`
	DroppedEvents   int64                      `json:"dropped_events"`
	Endpoints       map[string]EndpointMetrics `json:"endpoints"`
}

type EndpointMetrics struct {
	Initiated   int64            `json:"initiated"`
	Delivered   int64            `json:"delivered"`
	Failed      int64            `json:"failed"`
	Rejected    map[string]int64 `json:"rejected"`
	AvgResponse time.Duration    `json:"avg_response"`
	P50Response time.Duration    `json:"p50_response"`
	P95Response time.Duration    `json:"p95_response"`
	P99Response time.Duration    `json:"p99_response"`
	StatusCodes map[int]int64    `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		calls:     make(map[string]int64),
		endpoints: make(map[string]*endpointStats),
		startTime: time.Now(),
	}
}

func (m *Metrics) IncrementCalls(level string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[level]++
}

func (m *Metrics) IncrementConsoleWrites() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.consoleWrites++
}

func (m *Metrics) IncrementSuppressed() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.suppressed++
}

func (m *Metrics) RecordInitiated(endpoint string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.endpoint(endpoint).initiated++
}

func (m *Metrics) RecordRejected(endpoint, reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.endpoint(endpoint).rejected[reason]++
}

func (m *Metrics) RecordDelivery(endpoint string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats := m.endpoint(endpoint)
	stats.delivered++
	stats.statusCodes[statusCode]++
	m.appendResponse(stats, duration)
}

func (m *Metrics) RecordFailure(endpoint string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats := m.endpoint(endpoint)
	stats.failed++
	m.appendResponse(stats, duration)
}

func (m *Metrics) appendResponse(stats *endpointStats, duration time.Duration) {
	stats.responseTimes = append(stats.responseTimes, duration)
	if len(stats.responseTimes) > maxResponseSamples {
		stats.responseTimes = stats.responseTimes[1:]
	}
}

// endpoint must be called with the write lock held.
func (m *Metrics) endpoint(endpoint string) *endpointStats {
	stats, ok := m.endpoints[endpoint]
	if !ok {
		stats = &endpointStats{
			rejected:    make(map[string]int64),
			statusCodes: make(map[int]int64),
		}
		m.endpoints[endpoint] = stats
	}
	return stats
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:          time.Since(m.startTime),
		Calls:           make(map[string]int64, len(m.calls)),
		ConsoleWrites:   m.consoleWrites,
		SendsSuppressed: m.suppressed,
		Endpoints:       make(map[string]EndpointMetrics, len(m.endpoints)),
	}

	for level, n := range m.calls {
		snap.Calls[level] = n
	}

	for endpoint, stats := range m.endpoints {
		em := EndpointMetrics{
			Initiated:   stats.initiated,
			Delivered:   stats.delivered,
			Failed:      stats.failed,
			Rejected:    make(map[string]int64, len(stats.rejected)),
			StatusCodes: make(map[int]int64, len(stats.statusCodes)),
		}
		for reason, n := range stats.rejected {
			em.Rejected[reason] = n
		}
		for code, n := range stats.statusCodes {
			em.StatusCodes[code] = n
		}

		if len(stats.responseTimes) > 0 {
			sorted := make([]time.Duration, len(stats.responseTimes))
			copy(sorted, stats.responseTimes)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			em.AvgResponse = average(sorted)
			em.P50Response = percentile(sorted, 0.50)
			em.P95Response = percentile(sorted, 0.95)
			em.P99Response = percentile(sorted, 0.99)
		}

		snap.Endpoints[endpoint] = em
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
