// Package status provides a thread-safe status tracker for the oven
// controller daemon. It is read by HTTP handlers and serialized into MQTT
// system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/oven-control/internal/control"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs        int64
	PeriodicLogMs int64
	Broker        string
	HTTPAddr      string
	ParamsFile    string
	FilterWindow  int
	FlameDetect   bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Control       control.Status
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Control:   control.Status{State: control.StateIdle},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the controller status. Called from the tick loop on every
// cycle.
func (t *Tracker) Update(st control.Status) {
	t.mu.Lock()
	t.snap.Control = st
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
