package match

import (
	"sync"
	"time"
)

// TurnMetricsSnapshot summarises the wall-clock cost of resolved turns, order collection included.
type TurnMetricsSnapshot struct {
	Samples int
	Average time.Duration
	Max     time.Duration
	Last    time.Duration
	Total   time.Duration
}

// TurnsPerMinute derives the match throughput from the average turn duration.
func (s TurnMetricsSnapshot) TurnsPerMinute() float64 {
	if s.Average <= 0 {
		return 0
	}
	return float64(time.Minute) / float64(s.Average)
}

// TurnMonitor accumulates timing statistics for a running match. It is safe for concurrent use.
type TurnMonitor struct {
	mu      sync.Mutex
	samples int
	total   time.Duration
	max     time.Duration
	last    time.Duration
}

// NewTurnMonitor constructs an empty monitor.
func NewTurnMonitor() *TurnMonitor {
	return &TurnMonitor{}
}

// Observe records the duration of one completed turn. Non-positive durations are ignored.
func (m *TurnMonitor) Observe(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples++
	m.total += duration
	//1.- Keep the slowest turn so a stalled pilot stands out.
	if duration > m.max {
		m.max = duration
	}
	m.last = duration
}

// Snapshot returns a copy of the aggregated statistics.
func (m *TurnMonitor) Snapshot() TurnMetricsSnapshot {
	if m == nil {
		return TurnMetricsSnapshot{}
	}
	m.mu.Lock()
	snapshot := TurnMetricsSnapshot{Samples: m.samples, Max: m.max, Last: m.last, Total: m.total}
	m.mu.Unlock()

	if snapshot.Samples > 0 {
		snapshot.Average = snapshot.Total / time.Duration(snapshot.Samples)
	}
	return snapshot
}

// Reset clears the accumulated statistics before a new match.
func (m *TurnMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples, m.total, m.max, m.last = 0, 0, 0, 0
	m.mu.Unlock()
}
