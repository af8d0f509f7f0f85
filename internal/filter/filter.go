// Package filter provides median noise filtering for raw oven sensor samples.
// This package has NO external dependencies (no hardware, OS, or clock).
// It is driven purely by call order, one update per control tick.
package filter

import "sort"

// Window size bounds. A median needs at least 3 samples; 10 caps the
// response lag at half a second at the 20 Hz tick rate.
const (
	MinWindow = 3
	MaxWindow = 10
)

// Reading is the filtered output for a single update.
type Reading struct {
	// Filtered reference voltage (mV). Raw passthrough until warm.
	VrefMV uint16
	// Filtered signal voltage (mV). Raw passthrough until warm.
	SignalMV uint16
	// Valid is true once the history holds a full window of samples.
	Valid bool
}

// Median smooths paired vref/signal samples with independent per-channel
// medians over a fixed-capacity circular history. Fixed arrays, no
// allocation after construction.
type Median struct {
	window int
	vref   [MaxWindow]uint16
	signal [MaxWindow]uint16
	count  int // samples held, saturates at window
	cursor int // next write position
}

// NewMedian creates a filter with the given window size, clamped to
// [MinWindow, MaxWindow].
func NewMedian(window int) *Median {
	if window > MaxWindow {
		window = MaxWindow
	}
	if window < MinWindow {
		window = MinWindow
	}
	return &Median{window: window}
}

// Window returns the configured window size.
func (m *Median) Window() int {
	return m.window
}

// Reset clears the sample history without changing the window size.
func (m *Median) Reset() {
	m.count = 0
	m.cursor = 0
	m.vref = [MaxWindow]uint16{}
	m.signal = [MaxWindow]uint16{}
}

// Update records one raw sample pair and returns the filtered reading.
// Until the history is full the raw values pass through unchanged and the
// reading is marked invalid.
func (m *Median) Update(rawVrefMV, rawSignalMV uint16) Reading {
	m.vref[m.cursor] = rawVrefMV
	m.signal[m.cursor] = rawSignalMV
	m.cursor = (m.cursor + 1) % m.window
	if m.count < m.window {
		m.count++
	}

	if m.count < m.window {
		return Reading{VrefMV: rawVrefMV, SignalMV: rawSignalMV, Valid: false}
	}

	return Reading{
		VrefMV:   median(m.vref[:m.window]),
		SignalMV: median(m.signal[:m.window]),
		Valid:    true,
	}
}

// median returns the middle of the sorted samples; for an even count, the
// average of the two middle values. Ties break by value, not arrival order.
func median(samples []uint16) uint16 {
	var sorted [MaxWindow]uint16
	n := copy(sorted[:], samples)
	s := sorted[:n]
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	mid := n / 2
	if n%2 == 0 {
		// Widen before averaging: two mid values can sum past uint16.
		return uint16((int(s[mid-1]) + int(s[mid])) / 2)
	}
	return s[mid]
}
