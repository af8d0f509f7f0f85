package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string     `json:"event,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	State           string     `json:"state"`
	TemperatureC    float64    `json:"temperature_c"`
	VrefVolts       float64    `json:"vref_volts"`
	SignalVolts     float64    `json:"signal_volts"`
	DoorOpen        bool       `json:"door_open"`
	GasOn           bool       `json:"gas_on"`
	IgniterOn       bool       `json:"igniter_on"`
	VrefFault       bool       `json:"vref_fault"`
	SignalFault     bool       `json:"signal_fault"`
	SensorFault     bool       `json:"sensor_fault"`
	IgnitionAttempt int        `json:"ignition_attempt"`
	IgnitionLockout bool       `json:"ignition_lockout"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
	StartTime       string     `json:"start_time"`
	Timestamp       string     `json:"timestamp"`
	MQTT            MQTTStatus `json:"mqtt"`
	Config          ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs        int64  `json:"tick_ms"`
	PeriodicLogMs int64  `json:"periodic_log_ms"`
	Broker        string `json:"broker"`
	HTTPAddr      string `json:"http_addr"`
	ParamsFile    string `json:"params_file,omitempty"`
	FilterWindow  int    `json:"filter_window"`
	FlameDetect   bool   `json:"flame_detect"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Control
	state := string(c.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		State:           state,
		TemperatureC:    c.TemperatureC,
		VrefVolts:       c.VrefVolts,
		SignalVolts:     c.SignalVolts,
		DoorOpen:        c.DoorOpen,
		GasOn:           c.GasOn,
		IgniterOn:       c.IgniterOn,
		VrefFault:       c.VrefFault,
		SignalFault:     c.SignalFault,
		SensorFault:     c.SensorFault,
		IgnitionAttempt: c.IgnitionAttempt,
		IgnitionLockout: c.IgnitionLockout,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:        snap.Config.TickMs,
			PeriodicLogMs: snap.Config.PeriodicLogMs,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			ParamsFile:    snap.Config.ParamsFile,
			FilterWindow:  snap.Config.FilterWindow,
			FlameDetect:   snap.Config.FlameDetect,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
