package drivers

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"roverd/core"
)

// INA219 register map.
const (
	inaRegConfig      = 0x00
	inaRegShuntVolt   = 0x01
	inaRegBusVolt     = 0x02
	inaRegPower       = 0x03
	inaRegCurrent     = 0x04
	inaRegCalibration = 0x05
)

const (
	// 32V range, gain /8, 12-bit continuous shunt+bus conversion.
	inaConfigValue = 0x399F

	// Calibration for a 0.1 ohm shunt: current LSB 100uA, power LSB 2mW.
	inaCalValue    = 4096
	inaCurrentLSB  = 0.0001
	inaPowerLSB    = 0.002
	inaShuntLSBmV  = 0.01
	inaBusLSBVolts = 0.004
)

// INA219 reads bus voltage, shunt voltage, current and power from the
// platform's supply rail.
type INA219 struct {
	dev i2c.Dev
}

// NewINA219 writes the configuration and calibration registers.
func NewINA219(bus i2c.Bus, addr uint16) (*INA219, error) {
	s := &INA219{dev: i2c.Dev{Bus: bus, Addr: addr}}
	if err := s.writeReg(inaRegConfig, inaConfigValue); err != nil {
		return nil, fmt.Errorf("ina219: configure: %w", err)
	}
	if err := s.writeReg(inaRegCalibration, inaCalValue); err != nil {
		return nil, fmt.Errorf("ina219: calibrate: %w", err)
	}
	return s, nil
}

// ReadPower samples all four measurement registers.
func (s *INA219) ReadPower() (core.PowerReading, error) {
	var r core.PowerReading

	shunt, err := s.readReg(inaRegShuntVolt)
	if err != nil {
		return r, fmt.Errorf("ina219: shunt voltage: %w", err)
	}
	bus, err := s.readReg(inaRegBusVolt)
	if err != nil {
		return r, fmt.Errorf("ina219: bus voltage: %w", err)
	}
	current, err := s.readReg(inaRegCurrent)
	if err != nil {
		return r, fmt.Errorf("ina219: current: %w", err)
	}
	power, err := s.readReg(inaRegPower)
	if err != nil {
		return r, fmt.Errorf("ina219: power: %w", err)
	}

	r.ShuntVoltage = float64(int16(shunt)) * inaShuntLSBmV
	// Bus voltage lives in bits 15..3.
	r.BusVoltage = float64(bus>>3) * inaBusLSBVolts
	r.Current = float64(int16(current)) * inaCurrentLSB
	r.Power = float64(power) * inaPowerLSB
	return r, nil
}

func (s *INA219) writeReg(reg byte, value uint16) error {
	return s.dev.Tx([]byte{reg, byte(value >> 8), byte(value)}, nil)
}

func (s *INA219) readReg(reg byte) (uint16, error) {
	var buf [2]byte
	if err := s.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}
