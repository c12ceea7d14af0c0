// Package timing provides performance measurement for request/response cycles.
package timing

import (
	"fmt"
	"time"
)

// Metrics captures timing information for one request/response cycle.
type Metrics struct {
	// Connect is the time spent establishing (or fetching) the connection
	Connect time.Duration `json:"connect"`

	// TTFB is the time spent waiting for the first response byte after the
	// request was fully sent
	TTFB time.Duration `json:"ttfb"`

	// Total is the end-to-end cycle time
	Total time.Duration `json:"total"`
}

// String provides a human-readable representation of the metrics.
func (m Metrics) String() string {
	return fmt.Sprintf("Connect: %v, TTFB: %v, Total: %v", m.Connect, m.TTFB, m.Total)
}

// Timer measures the phases of a single cycle.
type Timer struct {
	start        time.Time
	connectStart time.Time
	connectEnd   time.Time
	ttfbStart    time.Time
	ttfbEnd      time.Time
}

// NewTimer starts a new measurement session.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// StartConnect marks the beginning of connection establishment.
func (t *Timer) StartConnect() {
	t.connectStart = time.Now()
}

// EndConnect marks the end of connection establishment.
func (t *Timer) EndConnect() {
	t.connectEnd = time.Now()
}

// StartTTFB marks when we begin waiting for the first response byte.
func (t *Timer) StartTTFB() {
	if t.ttfbStart.IsZero() {
		t.ttfbStart = time.Now()
	}
}

// EndTTFB marks when the first response byte arrived.
func (t *Timer) EndTTFB() {
	if t.ttfbEnd.IsZero() && !t.ttfbStart.IsZero() {
		t.ttfbEnd = time.Now()
	}
}

// Metrics returns the calculated timings so far.
func (t *Timer) Metrics() Metrics {
	m := Metrics{Total: time.Since(t.start)}
	if !t.connectStart.IsZero() && !t.connectEnd.IsZero() {
		m.Connect = t.connectEnd.Sub(t.connectStart)
	}
	if !t.ttfbStart.IsZero() && !t.ttfbEnd.IsZero() {
		m.TTFB = t.ttfbEnd.Sub(t.ttfbStart)
	}
	return m
}
