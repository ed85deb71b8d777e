package match

import (
	"testing"
	"time"
)

func TestTurnMonitorAggregates(t *testing.T) {
	monitor := NewTurnMonitor()
	monitor.Observe(time.Second)
	monitor.Observe(3 * time.Second)
	monitor.Observe(0)

	snapshot := monitor.Snapshot()
	if snapshot.Samples != 2 || snapshot.Average != 2*time.Second {
		t.Fatalf("unexpected aggregate %+v", snapshot)
	}
	if snapshot.Max != 3*time.Second || snapshot.Last != 3*time.Second || snapshot.Total != 4*time.Second {
		t.Fatalf("unexpected extremes %+v", snapshot)
	}
	if rate := snapshot.TurnsPerMinute(); rate != 30 {
		t.Fatalf("expected 30 turns per minute, got %v", rate)
	}

	monitor.Reset()
	if snapshot := monitor.Snapshot(); snapshot != (TurnMetricsSnapshot{}) {
		t.Fatalf("expected reset monitor, got %+v", snapshot)
	}
}

func TestNilTurnMonitorIsSafe(t *testing.T) {
	var monitor *TurnMonitor
	monitor.Observe(time.Second)
	monitor.Reset()
	if snapshot := monitor.Snapshot(); snapshot.TurnsPerMinute() != 0 {
		t.Fatalf("expected zero throughput, got %+v", snapshot)
	}
}
