package drivers

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"roverd/core"
)

// TMP102 register map.
const (
	tmpRegTemperature = 0x00
	tmpRegConfig      = 0x01
)

// TMP102 reads one of the board temperature sensors.
type TMP102 struct {
	dev i2c.Dev
}

// NewTMP102 returns a sensor handle; the chip's power-on defaults
// (continuous conversion, alert polarity low) are used as-is.
func NewTMP102(bus i2c.Bus, addr uint16) *TMP102 {
	return &TMP102{dev: i2c.Dev{Bus: bus, Addr: addr}}
}

// ReadTemperature samples the temperature register and the alert flag.
func (s *TMP102) ReadTemperature() (core.TempReading, error) {
	var r core.TempReading

	var buf [2]byte
	if err := s.dev.Tx([]byte{tmpRegTemperature}, buf[:]); err != nil {
		return r, fmt.Errorf("tmp102: temperature: %w", err)
	}
	// 12-bit two's complement in the top bits, 0.0625 C per count.
	raw := int16(uint16(buf[0])<<8|uint16(buf[1])) >> 4
	r.Celsius = float64(raw) * 0.0625

	if err := s.dev.Tx([]byte{tmpRegConfig}, buf[:]); err != nil {
		return r, fmt.Errorf("tmp102: config: %w", err)
	}
	// With default polarity the AL bit reads 1 while inactive and drops to
	// 0 when the alert limit is exceeded.
	r.Alert = buf[1]&0x20 == 0
	return r, nil
}
