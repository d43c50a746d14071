package core

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestPlayerRunsPatternToCompletion(t *testing.T) {
	out := &fakeLedWriter{}
	bank := NewLedBank(out, nil, nil)
	mock := clock.NewMock()
	p := NewPlayer(bank, mock)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Play(2)
	}()

	// Drive the mock clock until playback finishes.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			steps := patterns[2]
			// One write per step plus the final all-off.
			if len(out.writes) != len(steps)+1 {
				t.Fatalf("expected %d port writes, got %d", len(steps)+1, len(out.writes))
			}
			if out.writes[0] != [2]byte{steps[0].Port0, steps[0].Port1} {
				t.Errorf("first frame %v, want %v", out.writes[0], steps[0])
			}
			if out.writes[len(out.writes)-1] != [2]byte{0, 0} {
				t.Error("pattern did not end all-off")
			}
			return
		case <-deadline:
			t.Fatal("pattern playback never completed")
		default:
			mock.Add(patternFrame)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestPlayerUnknownPatternIsNoOp(t *testing.T) {
	out := &fakeLedWriter{}
	p := NewPlayer(NewLedBank(out, nil, nil), clock.NewMock())

	if err := p.Play(99); err != nil {
		t.Fatalf("unknown pattern errored: %v", err)
	}
	if len(out.writes) != 0 {
		t.Errorf("unknown pattern touched the hardware: %d writes", len(out.writes))
	}
}

func TestPatternExists(t *testing.T) {
	for _, idx := range []int{1, 2, 3} {
		if !PatternExists(idx) {
			t.Errorf("pattern %d should exist", idx)
		}
	}
	for _, idx := range []int{0, 4, -1, 42} {
		if PatternExists(idx) {
			t.Errorf("pattern %d should not exist", idx)
		}
	}
}
