//go:build !linux

package hal

import "errors"

// BoardConfig selects the hardware wiring for a real board.
type BoardConfig struct {
	PinGas     int
	PinIgniter int
	PinDoor    int
	I2CBus     string
}

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(cfg BoardConfig) (*RealBoard, error) {
	return nil, errors.New("hal: not supported on this platform (requires Linux)")
}

// ReadSensors is not implemented on non-Linux platforms.
func (b *RealBoard) ReadSensors() (uint16, uint16, error) {
	return 0, 0, errors.New("hal: not supported")
}

// SetGas is not implemented on non-Linux platforms.
func (b *RealBoard) SetGas(on bool) error { return errors.New("hal: not supported") }

// SetIgniter is not implemented on non-Linux platforms.
func (b *RealBoard) SetIgniter(on bool) error { return errors.New("hal: not supported") }

// EmergencyStop is a no-op on non-Linux platforms.
func (b *RealBoard) EmergencyStop() {}

// WatchDoor is not implemented on non-Linux platforms.
func (b *RealBoard) WatchDoor(fn func(open bool)) error { return errors.New("hal: not supported") }

// Close is a no-op on non-Linux platforms.
func (b *RealBoard) Close() error { return nil }
