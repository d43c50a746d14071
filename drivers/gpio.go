package drivers

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// StatusLeds drives the two auxiliary LEDs on dedicated GPIO pins.
type StatusLeds struct {
	pins []gpio.PinOut
}

// NewStatusLeds wires the status LED pins in index order.
func NewStatusLeds(pins ...gpio.PinOut) *StatusLeds {
	return &StatusLeds{pins: pins}
}

// WriteStatusLed sets one status LED. Unknown indices error; the core
// ignores indices it does not configure, so this only fires on a wiring bug.
func (s *StatusLeds) WriteStatusLed(n int, on bool) error {
	if n < 0 || n >= len(s.pins) {
		return fmt.Errorf("statusleds: no pin for led %d", n)
	}
	return s.pins[n].Out(gpio.Level(on))
}

// Button is the pattern trigger input, wired active-low with a pull-up.
type Button struct {
	pin gpio.PinIn
}

// NewButton configures the input pin.
func NewButton(pin gpio.PinIn) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button: configure %s: %w", pin, err)
	}
	return &Button{pin: pin}, nil
}

// Pressed reports whether the button is held down.
func (b *Button) Pressed() (bool, error) {
	return b.pin.Read() == gpio.Low, nil
}
