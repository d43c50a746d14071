package core

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// TriggerInput is the digital input that starts the button LED pattern.
type TriggerInput interface {
	Pressed() (bool, error)
}

// LineHandler takes one command line and returns the response text.
// It must always return; dispatch never blocks on anything but hardware.
type LineHandler func(line string) string

const (
	// heartbeatPeriod is how often the first status LED toggles to show the
	// motor activity is alive.
	heartbeatPeriod = 500 * time.Millisecond

	statusLedHeartbeat = 0
	statusLedAutoPoll  = 1
)

// SchedulerConfig carries the activity periods. Zero values fall back to the
// board defaults.
type SchedulerConfig struct {
	MotorPeriod    time.Duration // ramp tick, default 20ms
	ButtonPeriod   time.Duration // trigger poll, default 50ms
	FallbackPeriod time.Duration // sensor idle re-check, default 1s
	ButtonPattern  int           // pattern played on trigger, default 1
}

func (c *SchedulerConfig) applyDefaults() {
	if c.MotorPeriod <= 0 {
		c.MotorPeriod = 20 * time.Millisecond
	}
	if c.ButtonPeriod <= 0 {
		c.ButtonPeriod = 50 * time.Millisecond
	}
	if c.FallbackPeriod <= 0 {
		c.FallbackPeriod = time.Second
	}
	if c.ButtonPattern == 0 {
		c.ButtonPattern = 1
	}
}

// Scheduler runs the four activities: motor ramp ticks, sensor polling,
// command intake and the button/pattern poll. Each activity is one
// goroutine with its own period; they share state only through the Store's
// locking discipline.
//
// Emergency stop runs inline in the command intake activity, so a pending
// STOP is never queued behind routine ramp ticks. The button activity blocks
// for the full duration of a running pattern; trigger polls and that
// activity's LED writes wait until the pattern finishes.
type Scheduler struct {
	store   *Store
	sensors *SensorBank
	player  *Player
	trigger TriggerInput
	handle  LineHandler

	in  io.Reader
	out io.Writer
	clk clock.Clock
	log *zap.SugaredLogger
	cfg SchedulerConfig
}

// NewScheduler wires the activities together. trigger may be nil on boards
// without a pattern button; the button activity then idles.
func NewScheduler(store *Store, sensors *SensorBank, player *Player, trigger TriggerInput,
	handle LineHandler, in io.Reader, out io.Writer, clk clock.Clock,
	log *zap.SugaredLogger, cfg SchedulerConfig) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cfg.applyDefaults()
	return &Scheduler{
		store:   store,
		sensors: sensors,
		player:  player,
		trigger: trigger,
		handle:  handle,
		in:      in,
		out:     out,
		clk:     clk,
		log:     log,
		cfg:     cfg,
	}
}

// Run starts all four activities and blocks until the context is cancelled
// and the periodic activities have wound down. The command intake activity
// exits when its input stream is closed; closing the serial port is part of
// shutdown for exactly that reason.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		s.runMotorTicks(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runSensorPoll(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runCommandIntake(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runButtonPoll(ctx)
	}()
	wg.Wait()
}

// runMotorTicks advances every motor ramp each period and toggles the
// heartbeat LED.
func (s *Scheduler) runMotorTicks(ctx context.Context) {
	ticker := s.clk.Ticker(s.cfg.MotorPeriod)
	defer ticker.Stop()

	heartbeatEvery := int(heartbeatPeriod / s.cfg.MotorPeriod)
	if heartbeatEvery < 1 {
		heartbeatEvery = 1
	}
	tickCount := 0
	heartbeat := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range s.store.Motors() {
				m.Tick()
			}
			tickCount++
			if tickCount%heartbeatEvery == 0 {
				heartbeat = !heartbeat
				s.store.Leds().SetStatusLed(statusLedHeartbeat, heartbeat)
			}
		}
	}
}

// runSensorPoll re-reads the auto-poll config every cycle: disabled, it
// idles on the fallback period; enabled, it performs one read/publish cycle
// and sleeps the configured interval. Readings go to the store only; the
// serial writer stays owned by the command activity.
func (s *Scheduler) runSensorPoll(ctx context.Context) {
	for {
		enabled, interval := s.store.AutoPoll()
		s.store.Leds().SetStatusLed(statusLedAutoPoll, enabled)
		if !enabled {
			if !s.sleep(ctx, s.cfg.FallbackPeriod) {
				return
			}
			continue
		}
		r := s.sensors.ReadAll(s.clk.Now())
		s.store.PublishReading(r)
		s.log.Debugw("sensor poll",
			"bus_v", r.Power.BusVoltage,
			"current_a", r.Power.Current,
			"temp_a", r.TempA.Celsius,
			"temp_b", r.TempB.Celsius,
			"valid", r.Valid)
		if !s.sleep(ctx, interval) {
			return
		}
	}
}

// maxCommandLine bounds one protocol line. Anything longer is garbage on the
// link, not a command; it is answered and discarded, never a reason to stop
// servicing the port.
const maxCommandLine = 256

// runCommandIntake blocks on line availability, then parses, dispatches and
// answers in the same pass. It has no fixed period.
func (s *Scheduler) runCommandIntake(ctx context.Context) {
	r := bufio.NewReaderSize(s.in, maxCommandLine)
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := r.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// Overlong line: answer like any other unrecognized input,
			// resynchronize to the next newline and keep going.
			io.WriteString(s.out, "Unknown command: line too long\r\nSend HELP for available commands\r\n")
			if err := discardLine(r); err != nil {
				s.logIntakeClosed(ctx, err)
				return
			}
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line != "" {
			if resp := s.handle(line); resp != "" {
				io.WriteString(s.out, resp+"\r\n")
			}
		}
		if err != nil {
			s.logIntakeClosed(ctx, err)
			return
		}
	}
}

// discardLine drains input up to and including the next newline.
func discardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if err != bufio.ErrBufferFull {
			return err
		}
	}
}

func (s *Scheduler) logIntakeClosed(ctx context.Context, err error) {
	if err != io.EOF && ctx.Err() == nil {
		s.log.Warnw("command input closed", "error", err)
	}
}

// runButtonPoll checks the trigger input each period and plays the
// configured pattern synchronously when it asserts.
func (s *Scheduler) runButtonPoll(ctx context.Context) {
	if s.trigger == nil {
		<-ctx.Done()
		return
	}
	ticker := s.clk.Ticker(s.cfg.ButtonPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pressed, err := s.trigger.Pressed()
			if err != nil {
				s.log.Warnw("trigger read failed", "error", err)
				continue
			}
			if pressed {
				s.player.Play(s.cfg.ButtonPattern)
			}
		}
	}
}

// sleep waits d on the scheduler clock, returning false when the context is
// cancelled first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clk.After(d):
		return true
	}
}
