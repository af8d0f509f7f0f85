//go:build linux

package hal

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// BoardConfig selects the hardware wiring for a real board.
type BoardConfig struct {
	PinGas     int
	PinIgniter int
	PinDoor    int
	// I2CBus is the ADC bus name; empty selects the first available bus.
	I2CBus string
}

// RealBoard drives actual hardware: gas/igniter via the GPIO character
// device, vref/signal via an ADS1115 on I2C, door switch via GPIO edge
// events.
type RealBoard struct {
	chip    *gpiocdev.Chip
	gas     *gpiocdev.Line
	igniter *gpiocdev.Line
	door    *gpiocdev.Line
	pinDoor int

	vrefPin   ads1x15.PinADC
	signalPin ads1x15.PinADC
}

// NewRealBoard opens the GPIO chip, claims the output lines (off), and
// configures the ADC channels.
func NewRealBoard(cfg BoardConfig) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	gas, err := chip.RequestLine(cfg.PinGas, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request gas pin %d: %w", cfg.PinGas, err)
	}

	igniter, err := chip.RequestLine(cfg.PinIgniter, gpiocdev.AsOutput(0))
	if err != nil {
		gas.Close()
		chip.Close()
		return nil, fmt.Errorf("request igniter pin %d: %w", cfg.PinIgniter, err)
	}

	b := &RealBoard{
		chip:    chip,
		gas:     gas,
		igniter: igniter,
		pinDoor: cfg.PinDoor,
	}

	if err := b.initADC(cfg.I2CBus); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *RealBoard) initADC(busName string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return fmt.Errorf("open i2c bus: %w", err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return fmt.Errorf("init ads1115: %w", err)
	}

	// 0-5V sensors; the 6.144V full-scale range is the smallest that
	// covers them.
	fullScale := 6144 * physic.MilliVolt

	b.signalPin, err = adc.PinForChannel(ads1x15.Channel0, fullScale, 128*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return fmt.Errorf("configure signal channel: %w", err)
	}
	b.vrefPin, err = adc.PinForChannel(ads1x15.Channel1, fullScale, 128*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return fmt.Errorf("configure vref channel: %w", err)
	}
	return nil
}

// ReadSensors samples both ADC channels and returns millivolts clamped to
// [0, 5000].
func (b *RealBoard) ReadSensors() (uint16, uint16, error) {
	vref, err := readMillivolts(b.vrefPin)
	if err != nil {
		return 0, 0, fmt.Errorf("read vref: %w", err)
	}
	signal, err := readMillivolts(b.signalPin)
	if err != nil {
		return 0, 0, fmt.Errorf("read signal: %w", err)
	}
	return vref, signal, nil
}

func readMillivolts(pin ads1x15.PinADC) (uint16, error) {
	sample, err := pin.Read()
	if err != nil {
		return 0, err
	}
	mv := int64(sample.V / physic.MilliVolt)
	if mv < 0 {
		mv = 0
	}
	if mv > 5000 {
		mv = 5000
	}
	return uint16(mv), nil
}

// SetGas drives the gas valve line.
func (b *RealBoard) SetGas(on bool) error {
	return b.gas.SetValue(boolToValue(on))
}

// SetIgniter drives the igniter line.
func (b *RealBoard) SetIgniter(on bool) error {
	return b.igniter.SetValue(boolToValue(on))
}

// EmergencyStop forces both outputs low. Errors are swallowed: this runs
// on the door event goroutine and there is nothing useful to do with a
// failure beyond what the next tick's SetGas/SetIgniter will report.
func (b *RealBoard) EmergencyStop() {
	b.gas.SetValue(0)
	b.igniter.SetValue(0)
}

// WatchDoor claims the door line with both-edge detection and an internal
// pull-up (switch to ground: high level = door open). The current level is
// delivered once, since no edge fires at startup.
func (b *RealBoard) WatchDoor(fn func(open bool)) error {
	if b.door != nil {
		return errors.New("door already watched")
	}

	line, err := b.chip.RequestLine(b.pinDoor,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			fn(evt.Type == gpiocdev.LineEventRisingEdge)
		}))
	if err != nil {
		return fmt.Errorf("request door pin %d: %w", b.pinDoor, err)
	}
	b.door = line

	v, err := line.Value()
	if err != nil {
		line.Close()
		b.door = nil
		return fmt.Errorf("read door pin %d: %w", b.pinDoor, err)
	}
	fn(v != 0)
	return nil
}

// Close forces outputs off and releases all lines and the chip.
func (b *RealBoard) Close() error {
	b.EmergencyStop()

	var errs []error
	if b.door != nil {
		if err := b.door.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close door line: %w", err))
		}
	}
	for _, pin := range []ads1x15.PinADC{b.signalPin, b.vrefPin} {
		if pin != nil {
			if err := pin.Halt(); err != nil {
				errs = append(errs, fmt.Errorf("halt adc pin: %w", err))
			}
		}
	}
	if err := b.igniter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close igniter line: %w", err))
	}
	if err := b.gas.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gas line: %w", err))
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
