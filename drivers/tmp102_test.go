package drivers

import (
	"math"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestTMP102ReadTemperature(t *testing.T) {
	for _, tc := range []struct {
		name    string
		tempReg []byte
		cfgReg  []byte
		want    float64
		alert   bool
	}{
		// 0x190 counts at 0.0625 C per count.
		{"room temperature", []byte{0x19, 0x00}, []byte{0x60, 0xA0}, 25.0, false},
		// Negative temperatures are 12-bit two's complement.
		{"below freezing", []byte{0xE7, 0x00}, []byte{0x60, 0xA0}, -25.0, false},
		// With default polarity the AL bit drops to 0 on alert.
		{"alert asserted", []byte{0x32, 0x00}, []byte{0x60, 0x80}, 50.0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bus := &i2ctest.Playback{
				Ops: []i2ctest.IO{
					{Addr: 0x48, W: []byte{0x00}, R: tc.tempReg},
					{Addr: 0x48, W: []byte{0x01}, R: tc.cfgReg},
				},
			}
			s := NewTMP102(bus, 0x48)
			r, err := s.ReadTemperature()
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if math.Abs(r.Celsius-tc.want) > 1e-9 {
				t.Errorf("temperature = %v, want %v", r.Celsius, tc.want)
			}
			if r.Alert != tc.alert {
				t.Errorf("alert = %v, want %v", r.Alert, tc.alert)
			}
			if err := bus.Close(); err != nil {
				t.Errorf("expected bus traffic missing: %v", err)
			}
		})
	}
}
