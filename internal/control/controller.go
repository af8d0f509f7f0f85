package control

import (
	"sync/atomic"
	"time"

	"github.com/sweeney/oven-control/internal/config"
	"github.com/sweeney/oven-control/internal/filter"
)

// Controller runs the oven control core. All mutable state is owned here
// and mutated only by Tick (single writer). The door flag and the manual
// reset request are single-slot inboxes: other goroutines may set them at
// any time and the next Tick observes them.
type Controller struct {
	store  *config.Store
	filter *filter.Median
	faults faultEvaluator

	doorOpen     atomic.Bool // written from the door edge handler
	resetRequest atomic.Bool // written from the operator surface

	status              Status
	attempts            int
	ignitionStart       time.Time
	purgeStart          time.Time
	tempAtIgnitionStart float64
}

// New creates a controller reading tunables from the given store.
func New(store *config.Store) *Controller {
	c := &Controller{
		store:  store,
		filter: filter.NewMedian(store.Snapshot().FilterWindow),
	}
	c.Initialize()
	return c
}

// Initialize resets all internal state: IDLE, zeroed timers, cleared
// filter history and fault latch.
func (c *Controller) Initialize() {
	c.filter.Reset()
	c.faults.reset()
	c.doorOpen.Store(false)
	c.resetRequest.Store(false)
	c.attempts = 0
	c.ignitionStart = time.Time{}
	c.purgeStart = time.Time{}
	c.tempAtIgnitionStart = 0
	c.status = Status{State: StateIdle, TemperatureC: tempMinC}
}

// SetDoorOpen overwrites the door-open flag. Callable from the door event
// goroutine; the value is observed at the start of the next Tick. The
// caller is responsible for the immediate hardware cutoff (emergency stop)
// on the open edge.
func (c *Controller) SetDoorOpen(open bool) {
	c.doorOpen.Store(open)
}

// RequestLockoutReset asks for a manual lockout reset. The next Tick
// honors it only if the state is LOCKOUT; otherwise it is a no-op.
func (c *Controller) RequestLockoutReset() {
	c.resetRequest.Store(true)
}

// Status returns the snapshot from the most recent Tick. Call from the
// control loop goroutine; concurrent readers should go through the status
// tracker fed by the loop.
func (c *Controller) Status() Status {
	return c.status
}

// Tick executes one full control cycle: filter the raw samples, update the
// fault latch, map temperature, run the heating state machine. It returns
// the commanded outputs and any transition events.
func (c *Controller) Tick(now time.Time, rawVrefMV, rawSignalMV uint16) (Outputs, []Event) {
	p := c.store.Snapshot()
	var transitions []EventType

	reading := c.filter.Update(rawVrefMV, rawSignalMV)
	vrefMV := float64(reading.VrefMV)
	signalMV := float64(reading.SignalMV)

	wasLatched := c.status.SensorFault
	vrefFault, signalFault, latched := c.faults.evaluate(now, vrefMV, signalMV, p)

	c.status.VrefVolts = vrefMV / 1000.0
	c.status.SignalVolts = signalMV / 1000.0
	c.status.TemperatureC = MapTemperature(vrefMV, signalMV)
	c.status.VrefFault = vrefFault
	c.status.SignalFault = signalFault
	c.status.SensorFault = latched
	c.status.DoorOpen = c.doorOpen.Load()

	if latched && !wasLatched {
		transitions = append(transitions, EventSensorFaultLatched)
	}
	if !latched && wasLatched {
		transitions = append(transitions, EventSensorFaultCleared)
	}

	if c.resetRequest.Swap(false) && c.status.State == StateLockout {
		c.status.State = StateIdle
		c.status.IgnitionLockout = false
		c.attempts = 0
		transitions = append(transitions, EventLockoutReset)
	}

	c.updateHeating(now, p, &transitions)

	c.status.IgnitionAttempt = c.attempts

	events := make([]Event, 0, len(transitions))
	for _, tr := range transitions {
		events = append(events, Event{Timestamp: now, Type: tr, Status: c.status})
	}
	return Outputs{Gas: c.status.GasOn, Igniter: c.status.IgniterOn}, events
}

// updateHeating advances the state machine for one tick. The door/fault
// override runs first and wins over every other transition; LOCKOUT is
// exited only by manual reset.
func (c *Controller) updateHeating(now time.Time, p config.Params, transitions *[]EventType) {
	if c.status.DoorOpen || c.status.SensorFault {
		wasActive := c.status.GasOn || c.status.IgniterOn
		c.status.GasOn = false
		c.status.IgniterOn = false
		if c.status.State != StateLockout {
			if wasActive || c.status.State != StateIdle {
				*transitions = append(*transitions, EventSafetyShutdown)
			}
			c.status.State = StateIdle
			c.attempts = 0
		}
		return
	}

	switch c.status.State {
	case StateLockout:
		// Terminal until manual reset; force outputs off every tick.
		c.status.GasOn = false
		c.status.IgniterOn = false

	case StateIdle:
		if c.status.TemperatureC <= p.TempTargetC-p.TempDeltaC {
			c.attempts++
			c.status.GasOn = true
			c.status.IgniterOn = true
			c.status.State = StateIgniting
			c.ignitionStart = now
			c.tempAtIgnitionStart = c.status.TemperatureC
			*transitions = append(*transitions, EventIgnitionStart)
		}

	case StateIgniting:
		if now.Sub(c.ignitionStart) >= p.IgnitionDuration {
			switch {
			case c.flameConfirmed(p):
				c.status.IgniterOn = false
				c.status.State = StateHeating
				c.attempts = 0
				*transitions = append(*transitions, EventIgnitionConfirmed)
			case c.attempts >= p.MaxIgnitionAttempts:
				c.status.GasOn = false
				c.status.IgniterOn = false
				c.status.State = StateLockout
				c.status.IgnitionLockout = true
				*transitions = append(*transitions, EventIgnitionFailed, EventLockout)
			default:
				c.status.GasOn = false
				c.status.IgniterOn = false
				c.status.State = StatePurging
				c.purgeStart = now
				*transitions = append(*transitions, EventIgnitionFailed)
			}
		}

	case StatePurging:
		if now.Sub(c.purgeStart) >= p.PurgeTime {
			c.status.State = StateIdle
			*transitions = append(*transitions, EventPurgeComplete)
		}

	case StateHeating:
		if c.status.TemperatureC >= p.TempTargetC+p.TempDeltaC {
			c.status.GasOn = false
			c.status.State = StateIdle
			c.attempts = 0
			*transitions = append(*transitions, EventHeatComplete)
		}
	}
}

// flameConfirmed reports whether ignition produced a flame. With flame
// detection disabled, ignition is always confirmed once the timer expires.
func (c *Controller) flameConfirmed(p config.Params) bool {
	if !p.FlameDetectEnabled {
		return true
	}
	return c.status.TemperatureC-c.tempAtIgnitionStart > p.FlameDetectTempRiseC
}
