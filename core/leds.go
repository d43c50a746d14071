package core

import (
	"sync"

	"go.uber.org/zap"
)

// LedCount is the number of addressable indicator LEDs behind the expander.
// LEDs 1..8 live on port 0, LEDs 9..12 on the low bits of port 1.
const LedCount = 12

// StatusLedCount is the number of auxiliary status LEDs on dedicated pins.
const StatusLedCount = 2

// LedWriter pushes both expander output ports. Hardware polarity inversion,
// if any, happens behind this boundary; the masks handed over are logical
// ON/OFF state.
type LedWriter interface {
	WriteLedPorts(port0, port1 byte) error
}

// StatusLedWriter drives the two auxiliary status LEDs.
type StatusLedWriter interface {
	WriteStatusLed(n int, on bool) error
}

// LedBank mirrors the expander port state. Bit i of a port mask is the last
// commanded logical state of LED i; masks are never stored inverted. Every
// mutation computes the new masks and pushes them under one lock, so a
// reader never observes a mask mixing bits from two commands.
type LedBank struct {
	mu     sync.Mutex
	out    LedWriter
	status StatusLedWriter
	log    *zap.SugaredLogger

	port0, port1 byte
	aux          [StatusLedCount]bool
}

// NewLedBank creates a bank with all LEDs off. status may be nil when the
// board has no auxiliary LEDs.
func NewLedBank(out LedWriter, status StatusLedWriter, log *zap.SugaredLogger) *LedBank {
	return &LedBank{out: out, status: status, log: log}
}

// SetPorts overwrites both masks and pushes them.
func (b *LedBank) SetPorts(port0, port1 byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.port0 = port0
	b.port1 = port1
	return b.push()
}

// SetLed switches a single LED. Indices outside 1..12 are ignored, matching
// the clamp-or-ignore stance for all numeric command arguments.
func (b *LedBank) SetLed(n int, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, mask, ok := b.locate(n)
	if !ok {
		return nil
	}
	if on {
		*port |= mask
	} else {
		*port &^= mask
	}
	return b.push()
}

// ToggleLed inverts a single LED. Indices outside 1..12 are ignored.
func (b *LedBank) ToggleLed(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, mask, ok := b.locate(n)
	if !ok {
		return nil
	}
	*port ^= mask
	return b.push()
}

// Led reports the logical state of one LED; false for indices out of range.
func (b *LedBank) Led(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	port, mask, ok := b.locate(n)
	if !ok {
		return false
	}
	return *port&mask != 0
}

// AllOn lights every indicator LED.
func (b *LedBank) AllOn() error {
	return b.SetPorts(0xFF, 0x0F)
}

// AllOff blanks every indicator LED.
func (b *LedBank) AllOff() error {
	return b.SetPorts(0, 0)
}

// Ports returns the current logical masks.
func (b *LedBank) Ports() (port0, port1 byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port0, b.port1
}

// SetStatusLed drives one of the auxiliary LEDs. Out-of-range indices are
// ignored; a missing status writer makes this a no-op.
func (b *LedBank) SetStatusLed(n int, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n >= StatusLedCount {
		return nil
	}
	b.aux[n] = on
	if b.status == nil {
		return nil
	}
	if err := b.status.WriteStatusLed(n, on); err != nil {
		if b.log != nil {
			b.log.Warnw("status led write failed", "led", n, "error", err)
		}
		return err
	}
	return nil
}

// StatusLed reports the logical state of one auxiliary LED.
func (b *LedBank) StatusLed(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n >= StatusLedCount {
		return false
	}
	return b.aux[n]
}

// locate maps a 1-based LED number onto its port and bit mask.
// Must be called with the lock held.
func (b *LedBank) locate(n int) (port *byte, mask byte, ok bool) {
	switch {
	case n >= 1 && n <= 8:
		return &b.port0, 1 << (n - 1), true
	case n >= 9 && n <= LedCount:
		return &b.port1, 1 << (n - 9), true
	default:
		return nil, 0, false
	}
}

// push writes the current masks to the expander. Must be called with the
// lock held. Failures are logged and returned; the mirror keeps the
// commanded state so the next write converges.
func (b *LedBank) push() error {
	if err := b.out.WriteLedPorts(b.port0, b.port1); err != nil {
		if b.log != nil {
			b.log.Warnw("led port write failed", "error", err)
		}
		return err
	}
	return nil
}
