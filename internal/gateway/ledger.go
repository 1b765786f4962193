package gateway

import (
	"sort"
	"sync"
	"time"
)

// CallLedger counts upstream calls keyed by endpoint and by hour-of-day.
// Pure telemetry; inspected at the end of a monitoring cycle to estimate
// upstream cost.
type CallLedger struct {
	mu         sync.Mutex
	startedAt  time.Time
	total      int64
	byEndpoint map[string]int64
	byHour     [24]int64
	clock      func() time.Time
}

// NewCallLedger creates an empty ledger.
func NewCallLedger(clock func() time.Time) *CallLedger {
	if clock == nil {
		clock = time.Now
	}
	return &CallLedger{
		startedAt:  clock(),
		byEndpoint: make(map[string]int64),
		clock:      clock,
	}
}

// Record counts one call against endpoint.
func (l *CallLedger) Record(endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	l.byEndpoint[endpoint]++
	l.byHour[l.clock().Hour()]++
}

// EndpointCalls is one endpoint's call count.
type EndpointCalls struct {
	Endpoint string `json:"endpoint"`
	Calls    int64  `json:"calls"`
}

// CallStats is a snapshot of the ledger.
type CallStats struct {
	TotalCalls     int64           `json:"total_calls"`
	CallsPerMinute float64         `json:"calls_per_minute"`
	TopEndpoints   []EndpointCalls `json:"top_endpoints"`
	ByHour         [24]int64       `json:"by_hour"`
	Since          time.Time       `json:"since"`
}

// topEndpointCount caps the endpoints reported in stats.
const topEndpointCount = 5

// Stats returns a snapshot of call counters.
func (l *CallLedger) Stats() CallStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	endpoints := make([]EndpointCalls, 0, len(l.byEndpoint))
	for ep, n := range l.byEndpoint {
		endpoints = append(endpoints, EndpointCalls{Endpoint: ep, Calls: n})
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Calls != endpoints[j].Calls {
			return endpoints[i].Calls > endpoints[j].Calls
		}
		return endpoints[i].Endpoint < endpoints[j].Endpoint
	})
	if len(endpoints) > topEndpointCount {
		endpoints = endpoints[:topEndpointCount]
	}

	elapsed := l.clock().Sub(l.startedAt).Minutes()
	perMinute := 0.0
	if elapsed > 0 {
		perMinute = float64(l.total) / elapsed
	}

	return CallStats{
		TotalCalls:     l.total,
		CallsPerMinute: perMinute,
		TopEndpoints:   endpoints,
		ByHour:         l.byHour,
		Since:          l.startedAt,
	}
}
