package timing

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	timer := NewTimer()

	timer.StartConnect()
	time.Sleep(time.Millisecond)
	timer.EndConnect()

	timer.StartTTFB()
	time.Sleep(time.Millisecond)
	timer.EndTTFB()

	m := timer.Metrics()
	if m.Connect <= 0 {
		t.Error("Connect should be positive")
	}
	if m.TTFB <= 0 {
		t.Error("TTFB should be positive")
	}
	if m.Total < m.Connect {
		t.Error("Total should cover Connect")
	}
}

func TestTTFBFirstByteWins(t *testing.T) {
	timer := NewTimer()
	timer.StartTTFB()
	timer.EndTTFB()
	first := timer.Metrics().TTFB

	// Later marks must not move the recorded first byte.
	time.Sleep(time.Millisecond)
	timer.EndTTFB()
	if got := timer.Metrics().TTFB; got != first {
		t.Errorf("TTFB moved from %v to %v", first, got)
	}
}

func TestUnmeasuredPhasesZero(t *testing.T) {
	m := NewTimer().Metrics()
	if m.Connect != 0 || m.TTFB != 0 {
		t.Errorf("unmeasured phases should be zero, got %+v", m)
	}
}

func TestMetricsString(t *testing.T) {
	s := Metrics{Connect: time.Millisecond}.String()
	if !strings.Contains(s, "Connect") {
		t.Errorf("String() = %q, want Connect mention", s)
	}
}
