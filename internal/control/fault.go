package control

import (
	"time"

	"github.com/sweeney/oven-control/internal/config"
)

// faultEvaluator separates instantaneous band violations from the latched
// aggregate fault. A momentary blip stays visible in the instantaneous
// flags without tripping the shutdown path; a violation sustained past the
// fault window latches, and the latch clears only after a continuous
// valid window. At most one of the two timers is armed at a time.
type faultEvaluator struct {
	latched         bool
	outOfRangeSince time.Time // zero when no deviation is being measured
	validSince      time.Time // zero unless latched and currently valid
}

// evaluate updates the latch for one tick and returns the instantaneous
// flags plus the latched state. Boundary values are valid: the vref band
// is inclusive and the signal band faults only strictly outside
// [10%, 90%] of vref.
func (f *faultEvaluator) evaluate(now time.Time, vrefMV, signalMV float64, p config.Params) (vrefFault, signalFault, latched bool) {
	vrefV := vrefMV / 1000.0
	vrefFault = vrefV < p.VrefMinV || vrefV > p.VrefMaxV

	low := 0.10 * vrefMV
	high := 0.90 * vrefMV
	signalFault = signalMV < low || signalMV > high

	if vrefFault || signalFault {
		f.validSince = time.Time{}
		if f.outOfRangeSince.IsZero() {
			f.outOfRangeSince = now
		}
		if !f.latched && now.Sub(f.outOfRangeSince) > p.SensorFaultWindow {
			f.latched = true
		}
		return vrefFault, signalFault, f.latched
	}

	f.outOfRangeSince = time.Time{}
	if !f.latched {
		f.validSince = time.Time{}
		return vrefFault, signalFault, false
	}

	if f.validSince.IsZero() {
		f.validSince = now
	}
	if now.Sub(f.validSince) >= p.AutoResumeDelay {
		f.latched = false
		f.validSince = time.Time{}
	}
	return vrefFault, signalFault, f.latched
}

func (f *faultEvaluator) reset() {
	*f = faultEvaluator{}
}
