// Package control contains the oven control core: median-filtered sensor
// intake, timed fault latching, temperature mapping, and the heating state
// machine. This package has NO hardware, network, or clock dependencies;
// time is always injected via time.Time parameters, one Tick per control
// period.
package control

import "time"

// State is the heating lifecycle state.
type State string

const (
	// StateIdle: outputs off, waiting for heat demand.
	StateIdle State = "IDLE"
	// StateIgniting: gas and igniter on, ignition timer running.
	StateIgniting State = "IGNITING"
	// StateHeating: flame confirmed, gas on, igniter off.
	StateHeating State = "HEATING"
	// StatePurging: outputs off after a failed ignition, purge timer running.
	StatePurging State = "PURGING"
	// StateLockout: attempt limit exhausted; exits only via manual reset.
	StateLockout State = "LOCKOUT"
)

// EventType identifies a state-machine transition.
type EventType string

const (
	EventIgnitionStart      EventType = "IGNITION_START"
	EventIgnitionConfirmed  EventType = "IGNITION_CONFIRMED"
	EventIgnitionFailed     EventType = "IGNITION_FAILED"
	EventPurgeComplete      EventType = "PURGE_COMPLETE"
	EventHeatComplete       EventType = "HEAT_COMPLETE"
	EventSafetyShutdown     EventType = "SAFETY_SHUTDOWN"
	EventSensorFaultLatched EventType = "SENSOR_FAULT_LATCHED"
	EventSensorFaultCleared EventType = "SENSOR_FAULT_CLEARED"
	EventLockout            EventType = "LOCKOUT"
	EventLockoutReset       EventType = "LOCKOUT_RESET"
)

// Event records a transition for logging and publishing. Status is the
// snapshot as of the end of the tick that produced the event.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Status    Status
}

// Status is the externally observable snapshot, overwritten in place each
// tick.
type Status struct {
	VrefVolts       float64
	SignalVolts     float64
	TemperatureC    float64
	DoorOpen        bool
	GasOn           bool
	IgniterOn       bool
	State           State
	VrefFault       bool // instantaneous
	SignalFault     bool // instantaneous
	SensorFault     bool // latched aggregate
	IgnitionAttempt int
	IgnitionLockout bool
}

// Outputs are the commanded actuator states for one tick.
type Outputs struct {
	Gas     bool
	Igniter bool
}
