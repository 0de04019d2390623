package cursor

import (
	"time"
)

// pageRecord holds timing data for a consumed page.
type pageRecord struct {
	Items      int
	ConsumedAt time.Time
}

// Metrics holds checkpoint throughput data.
type Metrics struct {
	ItemsPerSecond  float64
	AveragePageTime time.Duration
	LastSavedAt     *time.Time
	StateHistory    []Transition
}

// MetricsCollector tracks checkpoint throughput over a window of pages.
type MetricsCollector struct {
	windowSize  int          // number of pages to track
	pages       []pageRecord // ring buffer of page records
	transitions []Transition // recent state changes
	lastSavedAt *time.Time
}

// RecordPage records a consumed page.
func (mc *MetricsCollector) RecordPage(items int, consumedAt time.Time) {
	record := pageRecord{Items: items, ConsumedAt: consumedAt}

	if len(mc.pages) >= mc.windowSize {
		// Shift elements left, drop oldest
		copy(mc.pages, mc.pages[1:])
		mc.pages[len(mc.pages)-1] = record
	} else {
		mc.pages = append(mc.pages, record)
	}
	mc.lastSavedAt = &consumedAt
}

// RecordTransition records a state transition.
func (mc *MetricsCollector) RecordTransition(t Transition) {
	// Keep only last 10 transitions
	if len(mc.transitions) >= 10 {
		copy(mc.transitions, mc.transitions[1:])
		mc.transitions[len(mc.transitions)-1] = t
	} else {
		mc.transitions = append(mc.transitions, t)
	}
}

// GetMetrics returns current metrics.
func (mc *MetricsCollector) GetMetrics() Metrics {
	m := Metrics{
		LastSavedAt:  mc.lastSavedAt,
		StateHistory: make([]Transition, len(mc.transitions)),
	}
	copy(m.StateHistory, mc.transitions)

	if len(mc.pages) >= 2 {
		first := mc.pages[0]
		last := mc.pages[len(mc.pages)-1]
		duration := last.ConsumedAt.Sub(first.ConsumedAt)

		if duration > 0 {
			// Items of the first page were consumed before the window opened.
			var items int
			for _, p := range mc.pages[1:] {
				items += p.Items
			}
			m.ItemsPerSecond = float64(items) / duration.Seconds()
			m.AveragePageTime = time.Duration(float64(duration) / float64(len(mc.pages)-1))
		}
	}

	return m
}
