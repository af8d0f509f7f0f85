package hal

import (
	"errors"
	"sync"
)

// Sample is one scripted ADC reading pair (millivolts).
type Sample struct {
	VrefMV   uint16
	SignalMV uint16
}

// FakeBoard is a test double with scripted sensor samples and recorded
// outputs. A mutex guards all state because the door callback fires from
// whatever goroutine calls SetDoor, mirroring the real board's event
// goroutine.
type FakeBoard struct {
	mu sync.Mutex

	// Samples are consumed one per ReadSensors call; the last sample
	// repeats once exhausted.
	Samples []Sample
	index   int

	// ReadError, if set, is returned by ReadSensors.
	ReadError error

	// Recorded output state.
	Gas     bool
	Igniter bool

	// Stops counts EmergencyStop calls.
	Stops int

	// Closed tracks if Close was called.
	Closed bool

	doorFn func(open bool)
}

// NewFakeBoard creates a FakeBoard with the given samples.
func NewFakeBoard(samples []Sample) *FakeBoard {
	return &FakeBoard{Samples: samples}
}

// ReadSensors returns the next scripted sample.
func (f *FakeBoard) ReadSensors() (uint16, uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return 0, 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.VrefMV, s.SignalMV, nil
}

// SetGas records the gas valve command.
func (f *FakeBoard) SetGas(on bool) error {
	f.mu.Lock()
	f.Gas = on
	f.mu.Unlock()
	return nil
}

// SetIgniter records the igniter command.
func (f *FakeBoard) SetIgniter(on bool) error {
	f.mu.Lock()
	f.Igniter = on
	f.mu.Unlock()
	return nil
}

// EmergencyStop forces both recorded outputs off.
func (f *FakeBoard) EmergencyStop() {
	f.mu.Lock()
	f.Gas = false
	f.Igniter = false
	f.Stops++
	f.mu.Unlock()
}

// WatchDoor registers the door callback and delivers the closed level.
func (f *FakeBoard) WatchDoor(fn func(open bool)) error {
	f.mu.Lock()
	f.doorFn = fn
	f.mu.Unlock()
	fn(false)
	return nil
}

// SetDoor simulates a door edge, invoking the registered callback the way
// the real board's event goroutine would.
func (f *FakeBoard) SetDoor(open bool) {
	f.mu.Lock()
	fn := f.doorFn
	f.mu.Unlock()
	if fn != nil {
		fn(open)
	}
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.Gas = false
	f.Igniter = false
	f.mu.Unlock()
	return nil
}

// Outputs returns the recorded gas/igniter state under the lock.
func (f *FakeBoard) Outputs() (gas, igniter bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Gas, f.Igniter
}

// Reset rewinds the sample script and clears recorded state.
func (f *FakeBoard) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Gas = false
	f.Igniter = false
	f.Stops = 0
	f.Closed = false
	f.ReadError = nil
	f.mu.Unlock()
}
