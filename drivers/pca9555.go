// Package drivers implements the peripheral collaborators behind the core's
// narrow hardware interfaces: the PCA9555 LED expander, the INA219 power
// monitor, the TMP102 temperature sensors, the H-bridge motor outputs and
// the GPIO status LEDs and trigger button, plus an in-memory simulator set.
package drivers

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// PCA9555 register map (output and config pairs auto-increment).
const (
	pcaRegOutput0 = 0x02
	pcaRegConfig0 = 0x06
)

// PCA9555 drives the twelve indicator LEDs on the expander's two output
// ports. The logical masks handed to WriteLedPorts are inverted here when
// the LEDs are wired active-low; the inversion never leaks above this
// boundary.
type PCA9555 struct {
	dev       i2c.Dev
	activeLow bool
}

// NewPCA9555 configures both ports as outputs and blanks them.
func NewPCA9555(bus i2c.Bus, addr uint16, activeLow bool) (*PCA9555, error) {
	p := &PCA9555{
		dev:       i2c.Dev{Bus: bus, Addr: addr},
		activeLow: activeLow,
	}
	if err := p.dev.Tx([]byte{pcaRegConfig0, 0x00, 0x00}, nil); err != nil {
		return nil, fmt.Errorf("pca9555: configure ports: %w", err)
	}
	if err := p.WriteLedPorts(0, 0); err != nil {
		return nil, fmt.Errorf("pca9555: blank ports: %w", err)
	}
	return p, nil
}

// WriteLedPorts pushes both logical masks to the expander in one transfer.
func (p *PCA9555) WriteLedPorts(port0, port1 byte) error {
	if p.activeLow {
		port0 = ^port0
		port1 = ^port1
	}
	if err := p.dev.Tx([]byte{pcaRegOutput0, port0, port1}, nil); err != nil {
		return fmt.Errorf("pca9555: write outputs: %w", err)
	}
	return nil
}
