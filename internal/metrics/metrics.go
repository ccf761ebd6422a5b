package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	services      map[string]string
	requests      map[string]int64
	rejected      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStatus  map[string]bool
	breakerState  map[string]string
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	Uptime        time.Duration              `json:"uptime"`
	Strategy      string                     `json:"strategy"`
	Rejected      map[string]int64           `json:"rejected"`
	Upstreams     map[string]UpstreamMetrics `json:"upstreams"`
}

type UpstreamMetrics struct {
	Service     string        `json:"service"`
	Requests    int64         `json:"requests"`
	Healthy     bool          `json:"healthy"`
	Breaker     string        `json:"breaker,omitempty"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		services:      make(map[string]string),
		requests:      make(map[string]int64),
		rejected:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStatus:  make(map[string]bool),
		breakerState:  make(map[string]string),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(service, upstream string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.services[upstream] = service
	m.requests[upstream]++
}

// IncrementRejected counts a request that found no available instance.
func (m *Metrics) IncrementRejected(service string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rejected[service]++
}

func (m *Metrics) RecordResponse(service, upstream string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.services[upstream] = service
	m.responseTimes[upstream] = append(m.responseTimes[upstream], duration)
	if len(m.responseTimes[upstream]) > maxSamples {
		m.responseTimes[upstream] = m.responseTimes[upstream][1:]
	}

	if m.statusCodes[upstream] == nil {
		m.statusCodes[upstream] = make(map[int]int64)
	}
	m.statusCodes[upstream][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(service, upstream string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.services[upstream] = service
	m.healthStatus[upstream] = healthy
}

func (m *Metrics) UpdateBreakerState(upstream, state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.breakerState[upstream] = state
}

func (m *Metrics) Snapshot(strategy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Strategy:  strategy,
		Rejected:  make(map[string]int64, len(m.rejected)),
		Upstreams: make(map[string]UpstreamMetrics, len(m.services)),
	}

	for service, n := range m.rejected {
		snap.Rejected[service] = n
	}

	// An upstream is listed once a request or health result was recorded for it.
	for upstream, service := range m.services {
		snap.TotalRequests += m.requests[upstream]

		um := UpstreamMetrics{
			Service:     service,
			Requests:    m.requests[upstream],
			Healthy:     m.healthStatus[upstream],
			Breaker:     m.breakerState[upstream],
			StatusCodes: make(map[int]int64, len(m.statusCodes[upstream])),
		}
		for code, n := range m.statusCodes[upstream] {
			um.StatusCodes[code] = n
		}

		if durations := m.responseTimes[upstream]; len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			um.AvgResponse = average(sorted)
			um.P50Response = percentile(sorted, 0.50)
			um.P95Response = percentile(sorted, 0.95)
			um.P99Response = percentile(sorted, 0.99)
		}

		snap.Upstreams[upstream] = um
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
