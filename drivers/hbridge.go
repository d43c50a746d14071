package drivers

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"roverd/core"
)

// pwmFrequency is well above audible range so the motors do not whine.
const pwmFrequency = 25 * physic.KiloHertz

// HBridgeChannel is the pin set for one motor: two polarity inputs and the
// PWM magnitude input of its H-bridge.
type HBridgeChannel struct {
	InA gpio.PinOut
	InB gpio.PinOut
	PWM gpio.PinOut
}

// HBridge drives the four motor channels. It is the hardware side of
// core.MotorOutput; the caller's locking guarantees writes to one channel
// never interleave.
type HBridge struct {
	channels map[core.MotorID]HBridgeChannel
}

// NewHBridge wires the channels. Motors without a channel entry report an
// error on write rather than silently dropping output.
func NewHBridge(channels map[core.MotorID]HBridgeChannel) *HBridge {
	return &HBridge{channels: channels}
}

// SetMotorOutputs applies both polarity levels and the PWM duty for one
// motor.
func (h *HBridge) SetMotorOutputs(id core.MotorID, polarityA, polarityB bool, magnitude uint8) error {
	ch, ok := h.channels[id]
	if !ok {
		return fmt.Errorf("hbridge: no channel for motor %d", id)
	}
	if err := ch.InA.Out(gpio.Level(polarityA)); err != nil {
		return fmt.Errorf("hbridge: motor %d polarity A: %w", id, err)
	}
	if err := ch.InB.Out(gpio.Level(polarityB)); err != nil {
		return fmt.Errorf("hbridge: motor %d polarity B: %w", id, err)
	}
	duty := gpio.Duty(uint64(magnitude) * uint64(gpio.DutyMax) / 255)
	if err := ch.PWM.PWM(duty, pwmFrequency); err != nil {
		return fmt.Errorf("hbridge: motor %d magnitude: %w", id, err)
	}
	return nil
}
