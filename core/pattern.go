package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

// PatternStep is one frame of an LED pattern: both port masks plus how long
// to hold them.
type PatternStep struct {
	Port0 byte
	Port1 byte
	Hold  time.Duration
}

const patternFrame = 100 * time.Millisecond

// Fixed pattern tables, selected by index at play time. Indices outside the
// table are no-ops.
var patterns = map[int][]PatternStep{
	// 1: single light chasing across all twelve LEDs and back.
	1: {
		{0x01, 0x00, patternFrame},
		{0x02, 0x00, patternFrame},
		{0x04, 0x00, patternFrame},
		{0x08, 0x00, patternFrame},
		{0x10, 0x00, patternFrame},
		{0x20, 0x00, patternFrame},
		{0x40, 0x00, patternFrame},
		{0x80, 0x00, patternFrame},
		{0x00, 0x01, patternFrame},
		{0x00, 0x02, patternFrame},
		{0x00, 0x04, patternFrame},
		{0x00, 0x08, patternFrame},
		{0x00, 0x04, patternFrame},
		{0x00, 0x02, patternFrame},
		{0x00, 0x01, patternFrame},
		{0x80, 0x00, patternFrame},
		{0x40, 0x00, patternFrame},
		{0x20, 0x00, patternFrame},
		{0x10, 0x00, patternFrame},
		{0x08, 0x00, patternFrame},
		{0x04, 0x00, patternFrame},
		{0x02, 0x00, patternFrame},
	},
	// 2: three full-bank blinks.
	2: {
		{0xFF, 0x0F, 3 * patternFrame},
		{0x00, 0x00, 3 * patternFrame},
		{0xFF, 0x0F, 3 * patternFrame},
		{0x00, 0x00, 3 * patternFrame},
		{0xFF, 0x0F, 3 * patternFrame},
	},
	// 3: alternating odd/even halves.
	3: {
		{0x55, 0x05, 2 * patternFrame},
		{0xAA, 0x0A, 2 * patternFrame},
		{0x55, 0x05, 2 * patternFrame},
		{0xAA, 0x0A, 2 * patternFrame},
	},
}

// PatternExists reports whether an index selects a defined pattern.
func PatternExists(index int) bool {
	_, ok := patterns[index]
	return ok
}

// Player plays timed LED sequences into a LedBank.
//
// Play occupies the calling activity for the full pattern duration. That is
// a deliberate simplicity/latency tradeoff carried over from the board's
// original behavior: while a pattern runs, the activity that started it
// (button poll or command intake) does not service anything else.
type Player struct {
	bank *LedBank
	clk  clock.Clock
}

// NewPlayer creates a player driven by the given clock.
func NewPlayer(bank *LedBank, clk clock.Clock) *Player {
	if clk == nil {
		clk = clock.New()
	}
	return &Player{bank: bank, clk: clk}
}

// Play runs one pattern to completion, then writes the all-off state and
// returns. Unknown indices do nothing. The first port write error aborts the
// sequence early but still blanks the bank.
func (p *Player) Play(index int) error {
	steps, ok := patterns[index]
	if !ok {
		return nil
	}
	for _, step := range steps {
		if err := p.bank.SetPorts(step.Port0, step.Port1); err != nil {
			p.bank.AllOff()
			return err
		}
		p.clk.Sleep(step.Hold)
	}
	return p.bank.AllOff()
}
