package drivers

import (
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestPCA9555ActiveLow(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// Both ports configured as outputs.
			{Addr: 0x20, W: []byte{0x06, 0x00, 0x00}},
			// Blank: logical all-off inverts to all-high pins.
			{Addr: 0x20, W: []byte{0x02, 0xFF, 0xFF}},
			{Addr: 0x20, W: []byte{0x02, 0xFA, 0xFE}},
		},
	}
	p, err := NewPCA9555(bus, 0x20, true)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := p.WriteLedPorts(0x05, 0x01); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("expected bus traffic missing: %v", err)
	}
}

func TestPCA9555ActiveHigh(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x21, W: []byte{0x06, 0x00, 0x00}},
			{Addr: 0x21, W: []byte{0x02, 0x00, 0x00}},
			{Addr: 0x21, W: []byte{0x02, 0xA1, 0x0A}},
		},
	}
	p, err := NewPCA9555(bus, 0x21, false)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := p.WriteLedPorts(0xA1, 0x0A); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("expected bus traffic missing: %v", err)
	}
}
