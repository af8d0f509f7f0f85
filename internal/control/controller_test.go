package control

import (
	"testing"
	"time"

	"github.com/sweeney/oven-control/internal/config"
)

// mvForTemp inverts the temperature mapping: the signal millivolts that
// read as tempC against the given vref.
func mvForTemp(vrefMV, tempC float64) uint16 {
	v := ((tempC+10.0)/310.0)*(0.80*vrefMV) + 0.10*vrefMV
	return uint16(v + 0.5)
}

// harness drives a controller with scripted sensor values and an advancing
// clock. The filter window is 3, so a changed input needs two extra ticks
// before the median follows it.
type harness struct {
	t        *testing.T
	store    *config.Store
	ctrl     *Controller
	now      time.Time
	vrefMV   uint16
	signalMV uint16
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := config.NewStore()
	if err := store.SetFilterWindow(3); err != nil {
		t.Fatalf("SetFilterWindow: %v", err)
	}
	h := &harness{
		t:      t,
		store:  store,
		now:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		vrefMV: 5000,
	}
	h.setTemp(160)
	h.ctrl = New(store)
	return h
}

func (h *harness) setTemp(tempC float64) {
	h.signalMV = mvForTemp(float64(h.vrefMV), tempC)
}

func (h *harness) tick() (Outputs, []Event) {
	return h.ctrl.Tick(h.now, h.vrefMV, h.signalMV)
}

// tickAfter advances the clock and runs one tick.
func (h *harness) tickAfter(d time.Duration) (Outputs, []Event) {
	h.now = h.now.Add(d)
	return h.tick()
}

func hasEvent(events []Event, et EventType) bool {
	for _, e := range events {
		if e.Type == et {
			return true
		}
	}
	return false
}

func TestIgnitionStartsWhenCold(t *testing.T) {
	h := newHarness(t)

	out, events := h.tick()
	st := h.ctrl.Status()
	if !out.Gas || !out.Igniter {
		t.Errorf("outputs: gas=%v igniter=%v, want both on", out.Gas, out.Igniter)
	}
	if st.State != StateIgniting {
		t.Errorf("state: got %s, want IGNITING", st.State)
	}
	if st.IgnitionAttempt != 1 {
		t.Errorf("attempt: got %d, want 1", st.IgnitionAttempt)
	}
	if !hasEvent(events, EventIgnitionStart) {
		t.Error("expected IGNITION_START event")
	}
}

func TestNoIgnitionWhenWarm(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179) // inside the hysteresis band (175..185)

	out, _ := h.tick()
	st := h.ctrl.Status()
	if out.Gas || out.Igniter {
		t.Error("outputs must stay off inside the hysteresis band")
	}
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
}

// 5000mV vref, 160C, flame auto-confirmed. Tick 1 ignites; 5000ms later the
// igniter drops and heating continues.
func TestIgnitionTiming(t *testing.T) {
	h := newHarness(t)
	h.store.SetFlameDetectEnabled(false)

	h.tick()

	out, _ := h.tickAfter(4900 * time.Millisecond)
	if !out.Igniter {
		t.Error("igniter should stay on before the ignition duration elapses")
	}
	if h.ctrl.Status().State != StateIgniting {
		t.Errorf("state: got %s, want IGNITING", h.ctrl.Status().State)
	}

	out, events := h.tickAfter(100 * time.Millisecond) // exactly +5000ms
	st := h.ctrl.Status()
	if !out.Gas {
		t.Error("gas should stay on after ignition completes")
	}
	if out.Igniter {
		t.Error("igniter should turn off once the ignition duration elapses")
	}
	if st.State != StateHeating {
		t.Errorf("state: got %s, want HEATING", st.State)
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt should reset on confirmation: got %d", st.IgnitionAttempt)
	}
	if !hasEvent(events, EventIgnitionConfirmed) {
		t.Error("expected IGNITION_CONFIRMED event")
	}
}

func TestHysteresisStopsAtUpperBound(t *testing.T) {
	h := newHarness(t)
	h.store.SetFlameDetectEnabled(false)

	h.tick()
	h.tickAfter(5 * time.Second) // HEATING

	// Push the reading above target+delta; the median follows after two
	// ticks of the new value.
	h.setTemp(186)
	h.tickAfter(100 * time.Millisecond)
	out, events := h.tickAfter(100 * time.Millisecond)
	st := h.ctrl.Status()
	if out.Gas || out.Igniter {
		t.Error("outputs must be off at/above the upper hysteresis bound")
	}
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt: got %d, want 0", st.IgnitionAttempt)
	}
	if !hasEvent(events, EventHeatComplete) {
		t.Error("expected HEAT_COMPLETE event")
	}
}

func TestDoorOpenForcesShutdown(t *testing.T) {
	h := newHarness(t)

	h.tick() // IGNITING
	h.ctrl.SetDoorOpen(true)

	out, events := h.tickAfter(100 * time.Millisecond)
	st := h.ctrl.Status()
	if out.Gas || out.Igniter {
		t.Error("outputs must be off while the door is open")
	}
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt must reset on door shutdown: got %d", st.IgnitionAttempt)
	}
	if !hasEvent(events, EventSafetyShutdown) {
		t.Error("expected SAFETY_SHUTDOWN event")
	}

	// Door closes: normal control resumes (re-ignition, still cold).
	h.ctrl.SetDoorOpen(false)
	out, _ = h.tickAfter(100 * time.Millisecond)
	if !out.Gas || !out.Igniter {
		t.Error("should re-ignite after the door closes")
	}
}

func TestDoorOpenWhileIdleStaysQuiet(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179)
	h.tick() // IDLE, outputs off
	h.ctrl.SetDoorOpen(true)

	_, events := h.tickAfter(100 * time.Millisecond)
	if hasEvent(events, EventSafetyShutdown) {
		t.Error("no shutdown event when nothing was active")
	}
	if h.ctrl.Status().State != StateIdle {
		t.Errorf("state: got %s, want IDLE", h.ctrl.Status().State)
	}
}

func TestFlameConfirmationRequiresRise(t *testing.T) {
	h := newHarness(t) // flame detection enabled by default

	h.tick() // baseline 160C recorded
	h.setTemp(166)
	h.tickAfter(100 * time.Millisecond)
	h.tickAfter(100 * time.Millisecond)

	_, events := h.tickAfter(4800 * time.Millisecond) // +5000ms total
	st := h.ctrl.Status()
	if st.State != StateHeating {
		t.Errorf("state: got %s, want HEATING (rise 6C > 2C threshold)", st.State)
	}
	if !hasEvent(events, EventIgnitionConfirmed) {
		t.Error("expected IGNITION_CONFIRMED event")
	}
}

func TestFlameConfirmationFailsWithoutRise(t *testing.T) {
	h := newHarness(t)

	h.tick() // attempt 1, temperature never rises

	out, events := h.tickAfter(5 * time.Second)
	st := h.ctrl.Status()
	if out.Gas || out.Igniter {
		t.Error("outputs must be off after a failed ignition")
	}
	if st.State != StatePurging {
		t.Errorf("state: got %s, want PURGING", st.State)
	}
	if !hasEvent(events, EventIgnitionFailed) {
		t.Error("expected IGNITION_FAILED event")
	}
}

func TestPurgeThenRetry(t *testing.T) {
	h := newHarness(t)

	h.tick()                      // attempt 1
	h.tickAfter(5 * time.Second)  // failed -> PURGING
	_, events := h.tickAfter(2500 * time.Millisecond)
	st := h.ctrl.Status()
	if st.State != StateIdle {
		t.Errorf("state after purge: got %s, want IDLE", st.State)
	}
	if !hasEvent(events, EventPurgeComplete) {
		t.Error("expected PURGE_COMPLETE event")
	}

	out, _ := h.tickAfter(100 * time.Millisecond)
	st = h.ctrl.Status()
	if !out.Gas || !out.Igniter {
		t.Error("retry should re-open gas and fire the igniter")
	}
	if st.IgnitionAttempt != 2 {
		t.Errorf("attempt: got %d, want 2", st.IgnitionAttempt)
	}
}

// runToLockout walks the harness through max attempts of failed ignitions.
func runToLockout(h *harness) []Event {
	var last []Event
	max := h.store.Snapshot().MaxIgnitionAttempts
	for attempt := 1; attempt <= max; attempt++ {
		if attempt == 1 {
			h.tick()
		} else {
			h.tickAfter(100 * time.Millisecond)
		}
		_, last = h.tickAfter(5 * time.Second)
		if attempt < max {
			h.tickAfter(2500 * time.Millisecond)
		}
	}
	return last
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	h := newHarness(t)

	events := runToLockout(h)
	st := h.ctrl.Status()
	if st.State != StateLockout {
		t.Fatalf("state: got %s, want LOCKOUT", st.State)
	}
	if !st.IgnitionLockout {
		t.Error("lockout flag should be set")
	}
	if !hasEvent(events, EventLockout) {
		t.Error("expected LOCKOUT event")
	}

	// Still cold; lockout must hold and keep outputs off.
	out, _ := h.tickAfter(time.Minute)
	if out.Gas || out.Igniter {
		t.Error("no heating allowed in lockout")
	}
	if h.ctrl.Status().State != StateLockout {
		t.Errorf("state: got %s, want LOCKOUT", h.ctrl.Status().State)
	}
}

func TestLockoutSurvivesDoorCycle(t *testing.T) {
	h := newHarness(t)
	runToLockout(h)

	h.ctrl.SetDoorOpen(true)
	h.tickAfter(100 * time.Millisecond)
	if h.ctrl.Status().State != StateLockout {
		t.Error("door open must not exit lockout")
	}
	h.ctrl.SetDoorOpen(false)
	h.tickAfter(100 * time.Millisecond)
	if h.ctrl.Status().State != StateLockout {
		t.Error("door close must not exit lockout")
	}
}

func TestManualResetFromLockout(t *testing.T) {
	h := newHarness(t)
	runToLockout(h)

	// Warm the reading so the reset lands in IDLE without re-igniting.
	h.setTemp(180)
	h.tickAfter(100 * time.Millisecond)
	h.tickAfter(100 * time.Millisecond)

	h.ctrl.RequestLockoutReset()
	out, events := h.tickAfter(100 * time.Millisecond)
	st := h.ctrl.Status()
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
	if st.IgnitionLockout {
		t.Error("lockout flag should be cleared")
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt: got %d, want 0", st.IgnitionAttempt)
	}
	if out.Gas || out.Igniter {
		t.Error("outputs must stay off after reset while warm")
	}
	if !hasEvent(events, EventLockoutReset) {
		t.Error("expected LOCKOUT_RESET event")
	}
}

func TestResetRequestIgnoredOutsideLockout(t *testing.T) {
	h := newHarness(t)
	h.setTemp(179)
	h.tick()

	h.ctrl.RequestLockoutReset()
	_, events := h.tickAfter(100 * time.Millisecond)
	if hasEvent(events, EventLockoutReset) {
		t.Error("reset must be a no-op outside lockout")
	}
	if h.ctrl.Status().State != StateIdle {
		t.Errorf("state: got %s, want IDLE", h.ctrl.Status().State)
	}
}

// Vref forced to 4000mV at 100ms tick spacing latches the sensor fault
// once the deviation has lasted strictly longer than 1000ms, not earlier.
func TestSensorFaultLatchedShutdown(t *testing.T) {
	h := newHarness(t)

	h.tick() // IGNITING on good readings
	h.vrefMV = 4000
	h.setTemp(160)

	// First bad sample reaches the evaluator on the next tick; the latch
	// needs strictly more than 1000ms of sustained deviation after that.
	deviationStart := h.now.Add(100 * time.Millisecond)
	var latchedAt time.Duration
	for i := 0; i < 15 && latchedAt == 0; i++ {
		h.tickAfter(100 * time.Millisecond)
		if h.ctrl.Status().SensorFault {
			latchedAt = h.now.Sub(deviationStart)
		}
	}
	if latchedAt == 0 {
		t.Fatal("sensor fault never latched")
	}
	if latchedAt <= time.Second {
		t.Errorf("latched after %v, want strictly more than 1s", latchedAt)
	}
	if latchedAt > 1300*time.Millisecond {
		t.Errorf("latched after %v, want within a tick or two past 1s", latchedAt)
	}

	st := h.ctrl.Status()
	if st.GasOn || st.IgniterOn {
		t.Error("outputs must be off on latched sensor fault")
	}
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt must reset on fault shutdown: got %d", st.IgnitionAttempt)
	}
}

func TestAutoResumeReignites(t *testing.T) {
	h := newHarness(t)

	h.tick()
	h.vrefMV = 4000
	h.setTemp(160)
	for i := 0; i < 14; i++ {
		h.tickAfter(100 * time.Millisecond)
	}
	if !h.ctrl.Status().SensorFault {
		t.Fatal("setup: fault did not latch")
	}

	// Restore good readings; after the median settles and the resume delay
	// elapses the latch clears and the cold oven re-ignites.
	h.vrefMV = 5000
	h.setTemp(160)
	var out Outputs
	for i := 0; i < 40; i++ {
		out, _ = h.tickAfter(100 * time.Millisecond)
		if !h.ctrl.Status().SensorFault {
			break
		}
	}
	st := h.ctrl.Status()
	if st.SensorFault {
		t.Fatal("fault should clear after the auto-resume delay")
	}
	if !out.Gas || !out.Igniter {
		t.Error("should re-ignite once the fault clears (still cold)")
	}
	if st.State != StateIgniting {
		t.Errorf("state: got %s, want IGNITING", st.State)
	}
}

func TestIgniterImpliesIgniting(t *testing.T) {
	h := newHarness(t)
	h.store.SetFlameDetectEnabled(false)

	check := func() {
		st := h.ctrl.Status()
		if st.IgniterOn && st.State != StateIgniting {
			t.Errorf("igniter on in state %s", st.State)
		}
		if (st.DoorOpen || st.SensorFault || st.State == StateLockout) && (st.GasOn || st.IgniterOn) {
			t.Errorf("outputs on under interlock: door=%v fault=%v state=%s",
				st.DoorOpen, st.SensorFault, st.State)
		}
	}

	h.tick()
	check()
	h.tickAfter(5 * time.Second)
	check()
	h.setTemp(186)
	h.tickAfter(100 * time.Millisecond)
	check()
	h.tickAfter(100 * time.Millisecond)
	check()
	h.ctrl.SetDoorOpen(true)
	h.tickAfter(100 * time.Millisecond)
	check()
}

func TestInitializeResets(t *testing.T) {
	h := newHarness(t)
	h.tick()
	h.tickAfter(100 * time.Millisecond)

	h.ctrl.Initialize()
	st := h.ctrl.Status()
	if st.State != StateIdle {
		t.Errorf("state: got %s, want IDLE", st.State)
	}
	if st.GasOn || st.IgniterOn {
		t.Error("outputs must be off after Initialize")
	}
	if st.IgnitionAttempt != 0 {
		t.Errorf("attempt: got %d, want 0", st.IgnitionAttempt)
	}
}
