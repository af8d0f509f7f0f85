// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/oven-control/internal/control"
)

// Topic is the MQTT topic for oven transition events.
const Topic = "energy/oven/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "energy/oven/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an oven transition event to the broker.
	// Returns error if publishing fails (must not crash the process).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown,
// periodic status).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the broker should retain the message
}

// Payload is the MQTT message envelope for a transition event.
type Payload struct {
	Oven OvenPayload `json:"oven"`
}

// OvenPayload carries the transition and the status snapshot behind it.
type OvenPayload struct {
	Timestamp       string  `json:"timestamp"`
	Event           string  `json:"event"`
	State           string  `json:"state"`
	TemperatureC    float64 `json:"temperature_c"`
	VrefVolts       float64 `json:"vref_volts"`
	SignalVolts     float64 `json:"signal_volts"`
	DoorOpen        bool    `json:"door_open"`
	GasOn           bool    `json:"gas_on"`
	IgniterOn       bool    `json:"igniter_on"`
	VrefFault       bool    `json:"vref_fault"`
	SignalFault     bool    `json:"signal_fault"`
	SensorFault     bool    `json:"sensor_fault"`
	IgnitionAttempt int     `json:"ignition_attempt"`
	IgnitionLockout bool    `json:"ignition_lockout"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event control.Event) ([]byte, error) {
	st := event.Status
	payload := Payload{
		Oven: OvenPayload{
			Timestamp:       event.Timestamp.UTC().Format(time.RFC3339),
			Event:           string(event.Type),
			State:           string(st.State),
			TemperatureC:    st.TemperatureC,
			VrefVolts:       st.VrefVolts,
			SignalVolts:     st.SignalVolts,
			DoorOpen:        st.DoorOpen,
			GasOn:           st.GasOn,
			IgniterOn:       st.IgniterOn,
			VrefFault:       st.VrefFault,
			SignalFault:     st.SignalFault,
			SensorFault:     st.SensorFault,
			IgnitionAttempt: st.IgnitionAttempt,
			IgnitionLockout: st.IgnitionLockout,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the envelope for simple system events that don't carry
// a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
