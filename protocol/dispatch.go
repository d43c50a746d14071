package protocol

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"roverd/core"
)

const helpText = `Available commands:
  M<1-4>:FWD|RL|BWD|LL[:percent]   set direction (and optionally speed)
  M<1-4>:REV                       reverse a running motor
  M<1-4>:SPD:<percent>             set target speed (ramped)
  M<1-4>:STOP                      stop one motor immediately
  M<1-4>:STATUS                    report direction and speed
  LED:ALL:ON|OFF                   all indicator LEDs
  LED:<1-12>:ON|OFF|TOGGLE         single LED
  LED:PATTERN:<1-3>                play an LED pattern
  SENSOR:READ[:ALL|POWER|TEMP]     read sensors now
  SENSOR:AUTO:ON[:seconds]         enable background polling
  SENSOR:AUTO:OFF                  disable background polling
  STOP | EMERGENCY                 stop all motors, clear LEDs
  STATUS                           full device status
  HELP                             this text`

// Dispatcher routes parsed commands to the motors, LEDs and sensors and
// renders the human-readable response. Every accepted command yields at
// least one response line, malformed input yields the unknown-command
// notice, and HandleLine always returns within the same call (pattern
// playback being the one deliberate blocking exception).
type Dispatcher struct {
	store   *core.Store
	sensors *core.SensorBank
	player  *core.Player
	log     *zap.SugaredLogger
}

// NewDispatcher wires the dispatcher to the shared device state.
func NewDispatcher(store *core.Store, sensors *core.SensorBank, player *core.Player, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{store: store, sensors: sensors, player: player, log: log}
}

// HandleLine parses and executes one command line.
func (d *Dispatcher) HandleLine(line string) string {
	return d.Execute(Parse(line))
}

// Execute runs one parsed command and returns the response text.
func (d *Dispatcher) Execute(cmd Command) string {
	switch c := cmd.(type) {
	case MotorCommand:
		return d.execMotor(c)
	case LedCommand:
		return d.execLed(c)
	case SensorCommand:
		return d.execSensor(c)
	case SystemCommand:
		return d.execSystem(c)
	case Unrecognized:
		d.log.Debugw("unknown command", "raw", c.Raw)
		return fmt.Sprintf("Unknown command: %s\r\nSend HELP for available commands", c.Raw)
	default:
		return "Unknown command\r\nSend HELP for available commands"
	}
}

func (d *Dispatcher) execMotor(c MotorCommand) string {
	m := d.store.Motor(c.ID)
	if m == nil {
		// Parse already rejects bad ids; this guards direct Execute calls.
		return fmt.Sprintf("Unknown command: M%d\r\nSend HELP for available commands", c.ID)
	}
	switch c.Action {
	case MotorForward, MotorBackward:
		dir := core.DirForward
		if c.Action == MotorBackward {
			dir = core.DirBackward
		}
		m.SetDirection(dir)
		if c.HasArg {
			m.SetSpeed(c.Arg, false)
		}
		return fmt.Sprintf("M%d set to %s at speed %d%%", c.ID, m.Direction(), m.TargetPercent())
	case MotorReverse:
		m.Reverse()
		return fmt.Sprintf("M%d set to %s at speed %d%%", c.ID, m.Direction(), m.TargetPercent())
	case MotorStop:
		m.Stop()
		return fmt.Sprintf("M%d stopped", c.ID)
	case MotorSpeed:
		m.SetSpeed(c.Arg, false)
		return fmt.Sprintf("M%d speed set to %d%%", c.ID, m.TargetPercent())
	case MotorStatus:
		return motorStatus(m)
	}
	return "Unknown command\r\nSend HELP for available commands"
}

func (d *Dispatcher) execLed(c LedCommand) string {
	leds := d.store.Leds()
	switch c.Action {
	case LedAll:
		if c.On {
			leds.AllOn()
			return "All LEDs on"
		}
		leds.AllOff()
		return "All LEDs off"
	case LedPattern:
		if !core.PatternExists(c.Index) {
			// Unrecognized pattern indices are no-ops by design.
			return fmt.Sprintf("No pattern %d", c.Index)
		}
		d.player.Play(c.Index)
		return fmt.Sprintf("Pattern %d done", c.Index)
	case LedOn, LedOff:
		if c.Index < 1 || c.Index > core.LedCount {
			return fmt.Sprintf("LED %d ignored (valid: 1-%d)", c.Index, core.LedCount)
		}
		leds.SetLed(c.Index, c.Action == LedOn)
		return fmt.Sprintf("LED %d %s", c.Index, onOff(c.Action == LedOn))
	case LedToggle:
		if c.Index < 1 || c.Index > core.LedCount {
			return fmt.Sprintf("LED %d ignored (valid: 1-%d)", c.Index, core.LedCount)
		}
		leds.ToggleLed(c.Index)
		return fmt.Sprintf("LED %d %s", c.Index, onOff(leds.Led(c.Index)))
	}
	return "Unknown command\r\nSend HELP for available commands"
}

func (d *Dispatcher) execSensor(c SensorCommand) string {
	switch c.Action {
	case SensorReadAll, SensorReadPower, SensorReadTemp:
		r := d.sensors.ReadAll(time.Now())
		d.store.PublishReading(r)
		var b strings.Builder
		if c.Action != SensorReadTemp {
			writePowerLines(&b, r)
		}
		if c.Action != SensorReadPower {
			writeTempLines(&b, r)
		}
		if !r.Valid {
			b.WriteString("Warning: one or more sensors did not respond\r\n")
		}
		return strings.TrimSuffix(b.String(), "\r\n")
	case SensorAutoOn:
		var interval time.Duration
		if c.HasArg {
			interval = time.Duration(c.Seconds) * time.Second
		}
		d.store.SetAutoPoll(true, interval)
		_, effective := d.store.AutoPoll()
		return fmt.Sprintf("Auto-poll enabled (interval %ds)", int(effective/time.Second))
	case SensorAutoOff:
		d.store.SetAutoPoll(false, 0)
		return "Auto-poll disabled"
	}
	return "Unknown command\r\nSend HELP for available commands"
}

func (d *Dispatcher) execSystem(c SystemCommand) string {
	switch c.Kind {
	case SysStop, SysEmergency:
		if err := d.store.StopAll(); err != nil {
			d.log.Warnw("stop-all completed with errors", "error", err)
		}
		return "All motors stopped, LEDs cleared"
	case SysStatus:
		return d.status()
	case SysHelp:
		return strings.ReplaceAll(helpText, "\n", "\r\n")
	}
	return "Unknown command\r\nSend HELP for available commands"
}

// status renders the full device report: motors, LED masks in binary, alert
// flags, auto-poll state, then one immediate sensor reading.
func (d *Dispatcher) status() string {
	var b strings.Builder
	for _, m := range d.store.Motors() {
		b.WriteString(motorStatus(m))
		b.WriteString("\r\n")
	}
	p0, p1 := d.store.Leds().Ports()
	fmt.Fprintf(&b, "LED port0: %08b  port1: %08b\r\n", p0, p1)

	r := d.sensors.ReadAll(time.Now())
	d.store.PublishReading(r)
	fmt.Fprintf(&b, "Alerts: A=%s B=%s\r\n", yesNo(r.TempA.Alert), yesNo(r.TempB.Alert))

	enabled, interval := d.store.AutoPoll()
	if enabled {
		fmt.Fprintf(&b, "Auto-poll: on (interval %ds)\r\n", int(interval/time.Second))
	} else {
		fmt.Fprintf(&b, "Auto-poll: off (interval %ds)\r\n", int(interval/time.Second))
	}
	writePowerLines(&b, r)
	writeTempLines(&b, r)
	return strings.TrimSuffix(b.String(), "\r\n")
}

func motorStatus(m *core.Motor) string {
	return fmt.Sprintf("M%d %s at %d%%", m.ID(), m.Direction(), m.Percent())
}

func writePowerLines(b *strings.Builder, r core.Reading) {
	fmt.Fprintf(b, "Bus: %.2f V  Shunt: %.2f mV  Current: %.3f A  Power: %.2f W\r\n",
		r.Power.BusVoltage, r.Power.ShuntVoltage, r.Power.Current, r.Power.Power)
}

func writeTempLines(b *strings.Builder, r core.Reading) {
	fmt.Fprintf(b, "Temp A: %.1f C (alert: %s)\r\n", r.TempA.Celsius, yesNo(r.TempA.Alert))
	fmt.Fprintf(b, "Temp B: %.1f C (alert: %s)\r\n", r.TempB.Celsius, yesNo(r.TempB.Alert))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
