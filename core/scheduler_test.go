package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// syncBuffer is a goroutine-safe response sink.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type fakeTrigger struct {
	mu      sync.Mutex
	pressed bool
}

func (f *fakeTrigger) Pressed() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pressed, nil
}

func (f *fakeTrigger) press(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = down
}

type countingPower struct {
	mu    sync.Mutex
	reads int
}

func (c *countingPower) ReadPower() (PowerReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return PowerReading{BusVoltage: 12}, nil
}

func (c *countingPower) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// waitFor drives the mock clock until cond holds or the real-time deadline
// expires.
func waitFor(t *testing.T, mock *clock.Mock, step time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never held")
		}
		mock.Add(step)
		time.Sleep(time.Millisecond)
	}
}

func startScheduler(t *testing.T, s *Scheduler) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not shut down")
		}
	}
}

func TestSchedulerCommandIntake(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()
	out := &syncBuffer{}

	var mu sync.Mutex
	var lines []string
	handler := func(line string) string {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		return "ok " + line
	}

	in := strings.NewReader("M1:FWD:50\n\n  LED:3:ON  \n")
	s := NewScheduler(store, NewSensorBank(nil, nil, nil, nil), nil, nil,
		handler, in, out, mock, nil, SchedulerConfig{})
	defer startScheduler(t, s)()

	waitFor(t, mock, 10*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if lines[0] != "M1:FWD:50" || lines[1] != "LED:3:ON" {
		t.Errorf("dispatched lines: %q", lines)
	}
	if got := out.String(); !strings.Contains(got, "ok M1:FWD:50\r\n") {
		t.Errorf("responses: %q", got)
	}
}

func TestSchedulerIntakeSurvivesOverlongLine(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()
	out := &syncBuffer{}

	var mu sync.Mutex
	var lines []string
	handler := func(line string) string {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		return "ok " + line
	}

	// Garbage far beyond any legal command, then a real command on the
	// same link.
	in := strings.NewReader(strings.Repeat("X", 100<<10) + "\nSTATUS\n")
	s := NewScheduler(store, NewSensorBank(nil, nil, nil, nil), nil, nil,
		handler, in, out, mock, nil, SchedulerConfig{})
	defer startScheduler(t, s)()

	waitFor(t, mock, 10*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if lines[0] != "STATUS" {
		t.Errorf("command after overlong line not dispatched: %q", lines)
	}
	got := out.String()
	if !strings.Contains(got, "Unknown command: line too long\r\n") {
		t.Errorf("overlong line not answered: %q", got)
	}
	if !strings.Contains(got, "ok STATUS\r\n") {
		t.Errorf("response after overlong line missing: %q", got)
	}
}

func TestSchedulerMotorRampActivity(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()

	m := store.Motor(1)
	m.SetDirection(DirForward)
	m.SetSpeed(100, false)

	s := NewScheduler(store, NewSensorBank(nil, nil, nil, nil), nil, nil,
		func(string) string { return "" }, strings.NewReader(""), &syncBuffer{},
		mock, nil, SchedulerConfig{MotorPeriod: 20 * time.Millisecond})
	defer startScheduler(t, s)()

	waitFor(t, mock, 20*time.Millisecond, func() bool {
		return m.Percent() == 100
	})
}

func TestSchedulerAutoPollCycle(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()
	power := &countingPower{}
	store.SetAutoPoll(true, 5*time.Second)

	s := NewScheduler(store, NewSensorBank(power, nil, nil, nil), nil, nil,
		func(string) string { return "" }, strings.NewReader(""), &syncBuffer{},
		mock, nil, SchedulerConfig{})
	defer startScheduler(t, s)()

	// First cycle runs immediately, later cycles each wait one interval.
	waitFor(t, mock, time.Second, func() bool {
		return power.count() >= 3
	})
	if r := store.LastReading(); !r.Valid || r.Power.BusVoltage != 12 {
		t.Errorf("published reading: %+v", r)
	}
	// The auto-poll status LED follows the enabled flag.
	if !store.Leds().StatusLed(statusLedAutoPoll) {
		t.Error("auto-poll status LED should be lit")
	}
}

func TestSchedulerSensorIdleWhenDisabled(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()
	power := &countingPower{}

	s := NewScheduler(store, NewSensorBank(power, nil, nil, nil), nil, nil,
		func(string) string { return "" }, strings.NewReader(""), &syncBuffer{},
		mock, nil, SchedulerConfig{})
	defer startScheduler(t, s)()

	// A few fallback periods pass without a single sensor read.
	for i := 0; i < 5; i++ {
		mock.Add(time.Second)
		time.Sleep(time.Millisecond)
	}
	if power.count() != 0 {
		t.Errorf("disabled auto-poll still read sensors %d times", power.count())
	}
}

func TestSchedulerButtonStartsPattern(t *testing.T) {
	store, _, ledOut := newTestStore()
	mock := clock.NewMock()
	trigger := &fakeTrigger{}
	player := NewPlayer(store.Leds(), mock)

	s := NewScheduler(store, NewSensorBank(nil, nil, nil, nil), player, trigger,
		func(string) string { return "" }, strings.NewReader(""), &syncBuffer{},
		mock, nil, SchedulerConfig{ButtonPattern: 2})
	defer startScheduler(t, s)()

	trigger.press(true)
	// Pattern 2 ends with the all-off write.
	waitFor(t, mock, 50*time.Millisecond, func() bool {
		p0, p1 := store.Leds().Ports()
		ledOut.mu.Lock()
		n := len(ledOut.writes)
		ledOut.mu.Unlock()
		return n > len(patterns[2]) && p0 == 0 && p1 == 0
	})
	trigger.press(false)
}

func TestSchedulerHeartbeat(t *testing.T) {
	store, _, _ := newTestStore()
	mock := clock.NewMock()

	s := NewScheduler(store, NewSensorBank(nil, nil, nil, nil), nil, nil,
		func(string) string { return "" }, strings.NewReader(""), &syncBuffer{},
		mock, nil, SchedulerConfig{MotorPeriod: 20 * time.Millisecond})
	defer startScheduler(t, s)()

	waitFor(t, mock, 20*time.Millisecond, func() bool {
		return store.Leds().StatusLed(statusLedHeartbeat)
	})
	waitFor(t, mock, 20*time.Millisecond, func() bool {
		return !store.Leds().StatusLed(statusLedHeartbeat)
	})
}
