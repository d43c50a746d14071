package core

import (
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PowerReading is one sample from the power monitor.
type PowerReading struct {
	BusVoltage   float64 // volts
	ShuntVoltage float64 // millivolts
	Current      float64 // amps
	Power        float64 // watts
}

// TempReading is one sample from a temperature sensor.
type TempReading struct {
	Celsius float64
	Alert   bool
}

// Reading is the combined result of one poll cycle. It is produced fresh
// each cycle and never mutated afterwards. Valid is false when any bus read
// failed; the failed portion reads as zero.
type Reading struct {
	Power PowerReading
	TempA TempReading
	TempB TempReading
	Valid bool
	At    time.Time
}

// PowerSensor reads the bus power monitor.
type PowerSensor interface {
	ReadPower() (PowerReading, error)
}

// TempSensor reads one temperature sensor.
type TempSensor interface {
	ReadTemperature() (TempReading, error)
}

// SensorBank performs one combined read across the power monitor and both
// temperature sensors. A chip that fails to respond yields a zero reading,
// never a halted activity.
type SensorBank struct {
	power PowerSensor
	tempA TempSensor
	tempB TempSensor
	log   *zap.SugaredLogger
}

// NewSensorBank wires the three sensors. Any of them may be nil on boards
// without that chip; the corresponding fields then always read zero.
func NewSensorBank(power PowerSensor, tempA, tempB TempSensor, log *zap.SugaredLogger) *SensorBank {
	return &SensorBank{power: power, tempA: tempA, tempB: tempB, log: log}
}

// ReadAll performs one poll cycle. Partial failures are aggregated, logged
// and reflected in Valid; the reading itself is always returned.
func (s *SensorBank) ReadAll(now time.Time) Reading {
	r := Reading{Valid: true, At: now}
	var errs error
	if s.power != nil {
		p, err := s.power.ReadPower()
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			r.Power = p
		}
	}
	if s.tempA != nil {
		t, err := s.tempA.ReadTemperature()
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			r.TempA = t
		}
	}
	if s.tempB != nil {
		t, err := s.tempB.ReadTemperature()
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			r.TempB = t
		}
	}
	if errs != nil {
		r.Valid = false
		if s.log != nil {
			s.log.Warnw("sensor poll incomplete", "error", errs)
		}
	}
	return r
}
