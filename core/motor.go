package core

import (
	"sync"

	"go.uber.org/zap"
)

// MotorID identifies one of the four drive motors (1..4).
type MotorID uint8

// MotorCount is the number of motors on the platform.
const MotorCount = 4

// ValidMotorID reports whether id addresses a real motor.
func ValidMotorID(id MotorID) bool {
	return id >= 1 && id <= MotorCount
}

// Direction is the commanded rotation direction of a motor.
type Direction uint8

const (
	DirStopped Direction = iota
	DirForward
	DirBackward
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "FORWARD"
	case DirBackward:
		return "BACKWARD"
	default:
		return "STOPPED"
	}
}

const (
	// SpeedMax is the top of the internal speed range (PWM counts).
	SpeedMax = 255

	// DefaultRampStep is the maximum speed change per ramp tick.
	DefaultRampStep = 5
)

// MotorOutput is the hardware boundary for a motor channel: two polarity
// signals plus an 8-bit magnitude.
type MotorOutput interface {
	SetMotorOutputs(id MotorID, polarityA, polarityB bool, magnitude uint8) error
}

// Motor holds the ramp state machine for one motor. The current speed moves
// toward the target by at most rampStep per Tick; direction changes take
// effect immediately, without ramping.
//
// All mutations hold the motor's lock for the full compute-new-state plus
// push-to-hardware sequence, so hardware never lags logical state by more
// than one call and no two commands interleave on the same channel.
type Motor struct {
	mu  sync.Mutex
	id  MotorID
	out MotorOutput
	log *zap.SugaredLogger

	dir      Direction
	current  uint8
	target   uint8
	rampStep uint8
}

// NewMotor creates a stopped motor. A rampStep of 0 falls back to
// DefaultRampStep.
func NewMotor(id MotorID, rampStep uint8, out MotorOutput, log *zap.SugaredLogger) *Motor {
	if rampStep == 0 {
		rampStep = DefaultRampStep
	}
	return &Motor{
		id:       id,
		out:      out,
		log:      log,
		dir:      DirStopped,
		rampStep: rampStep,
	}
}

// transition is the single place the direction state machine lives.
// Direction changes commit immediately; there is no ramp between directions.
func transition(current, requested Direction) Direction {
	switch requested {
	case DirForward, DirBackward, DirStopped:
		return requested
	default:
		return current
	}
}

// SetDirection commits a new direction immediately and re-applies the
// outputs so the polarity signals match before returning.
func (m *Motor) SetDirection(dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = transition(m.dir, dir)
	if m.dir == DirStopped {
		m.current = 0
		m.target = 0
	}
	return m.apply()
}

// Reverse flips a running motor. A stopped motor has nothing to reverse and
// stays stopped.
func (m *Motor) Reverse() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.dir {
	case DirForward:
		m.dir = transition(m.dir, DirBackward)
	case DirBackward:
		m.dir = transition(m.dir, DirForward)
	default:
		return nil
	}
	return m.apply()
}

// SetSpeed sets the target speed as a percentage. Out-of-range values are
// clamped to [0,100] rather than rejected: a clamped motor command is always
// safer than a refused one. With immediate set, the current speed snaps to
// the target and is pushed at once (stop and emergency paths); otherwise the
// change is picked up by the next ramp tick.
func (m *Motor) SetSpeed(percent int, immediate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = percentToSpeed(percent)
	if !immediate {
		return nil
	}
	m.current = m.target
	return m.apply()
}

// Tick advances the current speed toward the target by at most rampStep,
// landing exactly on the target when the remaining distance is smaller than
// one step. A motor already at its target does not touch the hardware.
func (m *Motor) Tick() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.current == m.target:
		return nil
	case m.current < m.target:
		if m.target-m.current <= m.rampStep {
			m.current = m.target
		} else {
			m.current += m.rampStep
		}
	default:
		if m.current-m.target <= m.rampStep {
			m.current = m.target
		} else {
			m.current -= m.rampStep
		}
	}
	return m.apply()
}

// Stop halts the motor in the same call: direction Stopped, speed zero,
// outputs pushed before returning. Never ramped.
func (m *Motor) Stop() error {
	return m.SetDirection(DirStopped)
}

// ID returns the motor's fixed identifier.
func (m *Motor) ID() MotorID {
	return m.id
}

// Direction returns the current commanded direction.
func (m *Motor) Direction() Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

// Percent returns the externally visible speed, the inverse of the percent
// to internal-range mapping applied by SetSpeed.
func (m *Motor) Percent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return speedToPercent(m.current)
}

// TargetPercent returns the percent the motor is ramping toward.
func (m *Motor) TargetPercent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return speedToPercent(m.target)
}

// apply re-derives the polarity and magnitude signals from the logical state
// and pushes them. Must be called with the lock held. A push failure is
// logged and returned but leaves the logical state committed; the next
// mutation pushes again.
func (m *Motor) apply() error {
	var polA, polB bool
	mag := m.current
	switch m.dir {
	case DirForward:
		polA, polB = true, false
	case DirBackward:
		polA, polB = false, true
	default:
		mag = 0
	}
	if err := m.out.SetMotorOutputs(m.id, polA, polB, mag); err != nil {
		if m.log != nil {
			m.log.Warnw("motor output write failed", "motor", m.id, "error", err)
		}
		return err
	}
	return nil
}

func percentToSpeed(percent int) uint8 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return uint8(percent * SpeedMax / 100)
}

func speedToPercent(speed uint8) int {
	return (int(speed)*100 + SpeedMax/2) / SpeedMax
}
