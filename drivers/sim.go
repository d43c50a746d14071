package drivers

import (
	"sync"

	"roverd/core"
)

// Sim is an in-memory stand-in for the whole peripheral set, used by the
// -sim flag and by tests that need a full device without hardware. It
// implements every collaborator interface the core consumes.
type Sim struct {
	mu sync.Mutex

	port0, port1 byte
	status       [core.StatusLedCount]bool
	motors       map[core.MotorID]SimMotorState
	pressed      bool

	power core.PowerReading
	tempA core.TempReading
	tempB core.TempReading
}

// SimMotorState is the last output pushed to one simulated motor channel.
type SimMotorState struct {
	PolarityA bool
	PolarityB bool
	Magnitude uint8
}

// NewSim returns a simulator with plausible idle readings.
func NewSim() *Sim {
	return &Sim{
		motors: make(map[core.MotorID]SimMotorState),
		power: core.PowerReading{
			BusVoltage:   12.1,
			ShuntVoltage: 0.25,
			Current:      0.42,
			Power:        5.08,
		},
		tempA: core.TempReading{Celsius: 24.5},
		tempB: core.TempReading{Celsius: 26.0},
	}
}

func (s *Sim) WriteLedPorts(port0, port1 byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port0, s.port1 = port0, port1
	return nil
}

func (s *Sim) WriteStatusLed(n int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= 0 && n < core.StatusLedCount {
		s.status[n] = on
	}
	return nil
}

func (s *Sim) SetMotorOutputs(id core.MotorID, polarityA, polarityB bool, magnitude uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motors[id] = SimMotorState{PolarityA: polarityA, PolarityB: polarityB, Magnitude: magnitude}
	return nil
}

func (s *Sim) ReadPower() (core.PowerReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power, nil
}

func (s *Sim) ReadTemperature() (core.TempReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempA, nil
}

// TempB returns a second TempSensor view backed by the same simulator.
func (s *Sim) TempB() core.TempSensor {
	return simTempB{s}
}

type simTempB struct{ s *Sim }

func (t simTempB) ReadTemperature() (core.TempReading, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.tempB, nil
}

func (s *Sim) Pressed() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed, nil
}

// Press sets the simulated trigger state.
func (s *Sim) Press(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed = down
}

// LedPorts returns the last masks pushed to the simulated expander.
func (s *Sim) LedPorts() (byte, byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port0, s.port1
}

// Motor returns the last output pushed to one simulated channel.
func (s *Sim) Motor(id core.MotorID) SimMotorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motors[id]
}

// SetReadings overrides the simulated sensor values.
func (s *Sim) SetReadings(power core.PowerReading, tempA, tempB core.TempReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power, s.tempA, s.tempB = power, tempA, tempB
}
