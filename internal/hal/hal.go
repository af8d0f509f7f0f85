// Package hal abstracts the oven board: ADC sensor inputs, gas valve and
// igniter outputs, and the door switch. The real implementation uses the
// Linux GPIO character device and an ADS1115 I2C ADC; the fake allows
// testing without hardware.
package hal

// Board is the hardware surface the control loop drives.
type Board interface {
	// ReadSensors returns the reference and signal voltages in millivolts,
	// range [0, 5000].
	ReadSensors() (vrefMV, signalMV uint16, err error)

	// SetGas commands the gas valve: true = open.
	SetGas(on bool) error

	// SetIgniter commands the igniter spark output.
	SetIgniter(on bool) error

	// EmergencyStop forces gas and igniter off immediately. It touches
	// only the hardware outputs, never controller state, so it is safe to
	// call from the door event goroutine ahead of the next tick.
	EmergencyStop()

	// WatchDoor registers fn for door transitions (true = open). fn runs
	// on the board's event goroutine and must return quickly. The current
	// level is delivered once on registration.
	WatchDoor(fn func(open bool)) error

	// Close releases hardware resources, forcing outputs off first.
	Close() error
}

// Default wiring (BCM numbering / ADS1115 channels), matching the
// reference board: gas valve on D2, igniter on D7, door switch on D3 with
// pull-up, signal on channel 0, vref on channel 1.
const (
	DefaultPinGas     = 2
	DefaultPinIgniter = 7
	DefaultPinDoor    = 3
)
