// Package config holds the runtime-tunable oven parameters behind a
// thread-safe store. Setters validate ranges and reject out-of-range values
// so the control core never sees an invalid threshold.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Params is a value snapshot of the tunables. Safe to use after the store
// lock is released.
type Params struct {
	// Duration the igniter stays on after the gas valve opens.
	IgnitionDuration time.Duration
	// Interval between periodic status log lines.
	PeriodicLogInterval time.Duration
	// Out-of-range duration before the sensor fault latches.
	SensorFaultWindow time.Duration
	// Continuous-valid duration before a latched fault clears.
	AutoResumeDelay time.Duration
	// Acceptable reference voltage band (volts, boundaries valid).
	VrefMinV float64
	VrefMaxV float64
	// Hysteresis band is TempTargetC +/- TempDeltaC.
	TempTargetC float64
	TempDeltaC  float64
	// Ignition attempts before lockout.
	MaxIgnitionAttempts int
	// Gas purge duration after a failed ignition.
	PurgeTime time.Duration
	// Temperature rise over the ignition-start baseline that confirms flame.
	FlameDetectTempRiseC float64
	// When false, ignition is always confirmed after the ignition timer.
	FlameDetectEnabled bool
	// Median filter window (samples), clamped by the filter itself.
	FilterWindow int
}

// Defaults returns the factory parameter set.
func Defaults() Params {
	return Params{
		IgnitionDuration:     5 * time.Second,
		PeriodicLogInterval:  time.Second,
		SensorFaultWindow:    time.Second,
		AutoResumeDelay:      3 * time.Second,
		VrefMinV:             4.5,
		VrefMaxV:             5.5,
		TempTargetC:          180.0,
		TempDeltaC:           5.0,
		MaxIgnitionAttempts:  3,
		PurgeTime:            2500 * time.Millisecond,
		FlameDetectTempRiseC: 2.0,
		FlameDetectEnabled:   true,
		FilterWindow:         5,
	}
}

// Store holds the current parameters behind an RWMutex. Setters apply
// atomically with respect to Snapshot, so a control tick sees a consistent
// parameter set.
type Store struct {
	mu sync.RWMutex
	p  Params
}

// NewStore creates a store populated with Defaults.
func NewStore() *Store {
	return &Store{p: Defaults()}
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// ResetToDefaults restores the factory parameter set.
func (s *Store) ResetToDefaults() {
	s.mu.Lock()
	s.p = Defaults()
	s.mu.Unlock()
}

// SetIgnitionDuration accepts 1s..30s.
func (s *Store) SetIgnitionDuration(d time.Duration) error {
	if d < time.Second || d > 30*time.Second {
		return fmt.Errorf("ignition duration %v out of range [1s, 30s]", d)
	}
	s.mu.Lock()
	s.p.IgnitionDuration = d
	s.mu.Unlock()
	return nil
}

// SetPeriodicLogInterval accepts 100ms..60s.
func (s *Store) SetPeriodicLogInterval(d time.Duration) error {
	if d < 100*time.Millisecond || d > time.Minute {
		return fmt.Errorf("periodic log interval %v out of range [100ms, 1m]", d)
	}
	s.mu.Lock()
	s.p.PeriodicLogInterval = d
	s.mu.Unlock()
	return nil
}

// SetSensorFaultWindow accepts 100ms..10s.
func (s *Store) SetSensorFaultWindow(d time.Duration) error {
	if d < 100*time.Millisecond || d > 10*time.Second {
		return fmt.Errorf("sensor fault window %v out of range [100ms, 10s]", d)
	}
	s.mu.Lock()
	s.p.SensorFaultWindow = d
	s.mu.Unlock()
	return nil
}

// SetAutoResumeDelay accepts 1s..30s.
func (s *Store) SetAutoResumeDelay(d time.Duration) error {
	if d < time.Second || d > 30*time.Second {
		return fmt.Errorf("auto-resume delay %v out of range [1s, 30s]", d)
	}
	s.mu.Lock()
	s.p.AutoResumeDelay = d
	s.mu.Unlock()
	return nil
}

// SetVrefRange accepts 0..10V with min strictly below max.
func (s *Store) SetVrefRange(minV, maxV float64) error {
	if minV < 0 || minV > 10 || maxV < 0 || maxV > 10 || minV >= maxV {
		return fmt.Errorf("vref range [%v, %v] invalid", minV, maxV)
	}
	s.mu.Lock()
	s.p.VrefMinV = minV
	s.p.VrefMaxV = maxV
	s.mu.Unlock()
	return nil
}

// SetTempTarget accepts 0..300 degrees C.
func (s *Store) SetTempTarget(targetC float64) error {
	if targetC < 0 || targetC > 300 {
		return fmt.Errorf("target temperature %v out of range [0, 300]", targetC)
	}
	s.mu.Lock()
	s.p.TempTargetC = targetC
	s.mu.Unlock()
	return nil
}

// SetTempDelta accepts 0.1..50 degrees C.
func (s *Store) SetTempDelta(deltaC float64) error {
	if deltaC < 0.1 || deltaC > 50 {
		return fmt.Errorf("hysteresis delta %v out of range [0.1, 50]", deltaC)
	}
	s.mu.Lock()
	s.p.TempDeltaC = deltaC
	s.mu.Unlock()
	return nil
}

// SetMaxIgnitionAttempts accepts 1..10.
func (s *Store) SetMaxIgnitionAttempts(attempts int) error {
	if attempts < 1 || attempts > 10 {
		return fmt.Errorf("max ignition attempts %d out of range [1, 10]", attempts)
	}
	s.mu.Lock()
	s.p.MaxIgnitionAttempts = attempts
	s.mu.Unlock()
	return nil
}

// SetPurgeTime accepts 1s..10s.
func (s *Store) SetPurgeTime(d time.Duration) error {
	if d < time.Second || d > 10*time.Second {
		return fmt.Errorf("purge time %v out of range [1s, 10s]", d)
	}
	s.mu.Lock()
	s.p.PurgeTime = d
	s.mu.Unlock()
	return nil
}

// SetFlameDetectTempRise accepts (0, 50] degrees C.
func (s *Store) SetFlameDetectTempRise(riseC float64) error {
	if riseC <= 0 || riseC > 50 {
		return fmt.Errorf("flame detect rise %v out of range (0, 50]", riseC)
	}
	s.mu.Lock()
	s.p.FlameDetectTempRiseC = riseC
	s.mu.Unlock()
	return nil
}

// SetFlameDetectEnabled selects between confirming ignition by temperature
// rise and always confirming after the ignition timer.
func (s *Store) SetFlameDetectEnabled(enabled bool) {
	s.mu.Lock()
	s.p.FlameDetectEnabled = enabled
	s.mu.Unlock()
}

// SetFilterWindow accepts 3..10 samples.
func (s *Store) SetFilterWindow(window int) error {
	if window < 3 || window > 10 {
		return fmt.Errorf("filter window %d out of range [3, 10]", window)
	}
	s.mu.Lock()
	s.p.FilterWindow = window
	s.mu.Unlock()
	return nil
}

// fileParams is the YAML schema for a parameter file. All fields are
// optional; absent fields keep their current value.
type fileParams struct {
	IgnitionDurationMs   *int64   `yaml:"ignition_duration_ms"`
	PeriodicLogMs        *int64   `yaml:"periodic_log_ms"`
	SensorFaultWindowMs  *int64   `yaml:"sensor_fault_window_ms"`
	AutoResumeDelayMs    *int64   `yaml:"auto_resume_delay_ms"`
	VrefMinV             *float64 `yaml:"vref_min_v"`
	VrefMaxV             *float64 `yaml:"vref_max_v"`
	TempTargetC          *float64 `yaml:"temp_target_c"`
	TempDeltaC           *float64 `yaml:"temp_delta_c"`
	MaxIgnitionAttempts  *int     `yaml:"max_ignition_attempts"`
	PurgeTimeMs          *int64   `yaml:"purge_time_ms"`
	FlameDetectTempRiseC *float64 `yaml:"flame_detect_temp_rise_c"`
	FlameDetectEnabled   *bool    `yaml:"flame_detect_enabled"`
	FilterWindow         *int     `yaml:"filter_window"`
}

// LoadFile overlays parameters from a YAML file onto the store. Values go
// through the validating setters, so an out-of-range entry fails the load
// without touching the stored value.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read params file: %w", err)
	}

	var fp fileParams
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return fmt.Errorf("parse params file: %w", err)
	}

	if fp.IgnitionDurationMs != nil {
		if err := s.SetIgnitionDuration(time.Duration(*fp.IgnitionDurationMs) * time.Millisecond); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.PeriodicLogMs != nil {
		if err := s.SetPeriodicLogInterval(time.Duration(*fp.PeriodicLogMs) * time.Millisecond); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.SensorFaultWindowMs != nil {
		if err := s.SetSensorFaultWindow(time.Duration(*fp.SensorFaultWindowMs) * time.Millisecond); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.AutoResumeDelayMs != nil {
		if err := s.SetAutoResumeDelay(time.Duration(*fp.AutoResumeDelayMs) * time.Millisecond); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.VrefMinV != nil || fp.VrefMaxV != nil {
		cur := s.Snapshot()
		minV, maxV := cur.VrefMinV, cur.VrefMaxV
		if fp.VrefMinV != nil {
			minV = *fp.VrefMinV
		}
		if fp.VrefMaxV != nil {
			maxV = *fp.VrefMaxV
		}
		if err := s.SetVrefRange(minV, maxV); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.TempTargetC != nil {
		if err := s.SetTempTarget(*fp.TempTargetC); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.TempDeltaC != nil {
		if err := s.SetTempDelta(*fp.TempDeltaC); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.MaxIgnitionAttempts != nil {
		if err := s.SetMaxIgnitionAttempts(*fp.MaxIgnitionAttempts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.PurgeTimeMs != nil {
		if err := s.SetPurgeTime(time.Duration(*fp.PurgeTimeMs) * time.Millisecond); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.FlameDetectTempRiseC != nil {
		if err := s.SetFlameDetectTempRise(*fp.FlameDetectTempRiseC); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if fp.FlameDetectEnabled != nil {
		s.SetFlameDetectEnabled(*fp.FlameDetectEnabled)
	}
	if fp.FilterWindow != nil {
		if err := s.SetFilterWindow(*fp.FilterWindow); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
