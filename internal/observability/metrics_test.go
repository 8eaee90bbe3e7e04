package observability

import (
	"testing"
	"time"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/claims/:id", "GET", 200, 3*time.Millisecond)
	m.RecordRequest("/claims/:id", "GET", 200, 2*time.Millisecond)
	m.RecordError("/claims", "POST", "CONFLICT")
	m.RecordTransition("submit", "ok")
	m.RecordTransition("submit", "ok")
	m.RecordTransition("submit", "invalid_transition")

	snap := m.Snapshot()
	if got := snap.Requests["/claims/:id|GET|200"]; got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
	if got := snap.RequestDurationMS["/claims/:id|GET|200"]; got != 5 {
		t.Errorf("duration = %dms, want 5ms", got)
	}
	if got := snap.Errors["/claims|POST|CONFLICT"]; got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
	if snap.Transitions["submit|ok"] != 2 || snap.Transitions["submit|invalid_transition"] != 1 {
		t.Errorf("transitions = %v", snap.Transitions)
	}

	snap.Transitions["submit|ok"] = 99
	if m.Snapshot().Transitions["submit|ok"] != 2 {
		t.Error("snapshot aliases internal state")
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordTransition("submit", "ok")
	if len(m.Snapshot().Transitions) != 0 {
		t.Error("nil metrics should report nothing")
	}
}
