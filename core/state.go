package core

import (
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MinPollInterval is the shortest accepted auto-poll interval. Requests
// below it are clamped up, not rejected.
const MinPollInterval = time.Second

// DefaultPollInterval matches the board's stock 5 second auto-read cycle.
const DefaultPollInterval = 5 * time.Second

// Store is the single point of truth shared by every activity: the four
// motors, the LED bank, the auto-poll configuration and the most recent
// sensor reading. Motor and LED state carry their own locks; the store adds
// locking only for what it owns directly.
type Store struct {
	motors [MotorCount]*Motor
	leds   *LedBank

	mu       sync.RWMutex
	enabled  bool
	interval time.Duration
	last     Reading
}

// NewStore builds the store and its motors. Auto-poll starts disabled at the
// default interval.
func NewStore(rampStep uint8, motorOut MotorOutput, leds *LedBank, log *zap.SugaredLogger) *Store {
	s := &Store{
		leds:     leds,
		interval: DefaultPollInterval,
	}
	for i := range s.motors {
		s.motors[i] = NewMotor(MotorID(i+1), rampStep, motorOut, log)
	}
	return s
}

// Motor returns the motor for a 1-based id, or nil for ids outside 1..4.
func (s *Store) Motor(id MotorID) *Motor {
	if !ValidMotorID(id) {
		return nil
	}
	return s.motors[id-1]
}

// Motors returns all four motors in id order.
func (s *Store) Motors() []*Motor {
	return s.motors[:]
}

// Leds returns the LED bank.
func (s *Store) Leds() *LedBank {
	return s.leds
}

// StopAll stops every motor immediately and blanks both LED ports, including
// the status LEDs. The stops are issued sequentially but with nothing else
// permitted in between on each channel; errors are aggregated so one failed
// channel never prevents stopping the rest.
func (s *Store) StopAll() error {
	var errs error
	for _, m := range s.motors {
		errs = multierr.Append(errs, m.Stop())
	}
	errs = multierr.Append(errs, s.leds.AllOff())
	for i := 0; i < StatusLedCount; i++ {
		errs = multierr.Append(errs, s.leds.SetStatusLed(i, false))
	}
	return errs
}

// SetAutoPoll enables or disables the background sensor poll. A zero
// interval keeps the previous one; any other below-minimum interval,
// negative included, is clamped up.
func (s *Store) SetAutoPoll(enabled bool, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	if interval != 0 {
		if interval < MinPollInterval {
			interval = MinPollInterval
		}
		s.interval = interval
	}
}

// AutoPoll returns the current auto-poll configuration. The sensor activity
// re-reads it every cycle so command changes take effect on the next cycle.
func (s *Store) AutoPoll() (enabled bool, interval time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled, s.interval
}

// PublishReading records the result of a poll cycle.
func (s *Store) PublishReading(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
}

// LastReading returns the most recently published reading; the zero Reading
// before the first poll.
func (s *Store) LastReading() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
