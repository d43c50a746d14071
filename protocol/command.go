package protocol

import (
	"strconv"
	"strings"

	"roverd/core"
)

// Command is the parsed form of one input line: a tagged variant, built
// fresh per line, immutable once returned by Parse and consumed once by the
// dispatcher.
type Command interface {
	isCommand()
}

// MotorAction enumerates the per-motor operations.
type MotorAction uint8

const (
	MotorForward MotorAction = iota
	MotorBackward
	MotorReverse
	MotorStop
	MotorSpeed
	MotorStatus
)

// MotorCommand targets a single motor by 1-based id.
type MotorCommand struct {
	ID     core.MotorID
	Action MotorAction
	Arg    int
	HasArg bool
}

// LedAction enumerates the LED operations.
type LedAction uint8

const (
	LedOn LedAction = iota
	LedOff
	LedToggle
	LedAll
	LedPattern
)

// LedCommand targets one LED, all LEDs, or a pattern.
type LedCommand struct {
	Action LedAction
	Index  int  // LED number for On/Off/Toggle, pattern number for Pattern
	On     bool // payload for All
}

// SensorAction enumerates the sensor operations.
type SensorAction uint8

const (
	SensorReadAll SensorAction = iota
	SensorReadPower
	SensorReadTemp
	SensorAutoOn
	SensorAutoOff
)

// SensorCommand reads sensors or configures auto-polling.
type SensorCommand struct {
	Action  SensorAction
	Seconds int // auto-poll interval for AutoOn
	HasArg  bool
}

// SystemKind enumerates the single-word system commands.
type SystemKind uint8

const (
	SysStop SystemKind = iota
	SysEmergency
	SysStatus
	SysHelp
)

// SystemCommand is one of STOP, EMERGENCY, STATUS, HELP.
type SystemCommand struct {
	Kind SystemKind
}

// Unrecognized carries the raw text of input that matched nothing.
type Unrecognized struct {
	Raw string
}

func (MotorCommand) isCommand()  {}
func (LedCommand) isCommand()    {}
func (SensorCommand) isCommand() {}
func (SystemCommand) isCommand() {}
func (Unrecognized) isCommand()  {}

// Parse splits a line on ":" into at most four fields, trims each, and
// matches keywords case-insensitively. Numeric fields are parsed from the
// trimmed original text. Anything that does not match the grammar comes back
// as Unrecognized; Parse never fails.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	raw := strings.SplitN(line, ":", 4)
	fields := make([]string, len(raw))
	upper := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = strings.TrimSpace(f)
		upper[i] = strings.ToUpper(fields[i])
	}

	switch {
	case isMotorField(upper[0]):
		return parseMotor(upper, fields, line)
	case upper[0] == "LED":
		return parseLed(upper, fields, line)
	case upper[0] == "SENSOR":
		return parseSensor(upper, fields, line)
	case len(fields) == 1:
		switch upper[0] {
		case "STOP":
			return SystemCommand{Kind: SysStop}
		case "EMERGENCY":
			return SystemCommand{Kind: SysEmergency}
		case "STATUS":
			return SystemCommand{Kind: SysStatus}
		case "HELP":
			return SystemCommand{Kind: SysHelp}
		}
	}
	return Unrecognized{Raw: line}
}

// isMotorField matches "M1".."M4". Other M-prefixed ids are out of range and
// therefore unrecognized, not clamped: there is no safe nearby motor.
func isMotorField(f string) bool {
	return len(f) == 2 && f[0] == 'M' && f[1] >= '1' && f[1] <= '0'+core.MotorCount
}

func parseMotor(upper, fields []string, line string) Command {
	if len(fields) < 2 {
		return Unrecognized{Raw: line}
	}
	cmd := MotorCommand{ID: core.MotorID(upper[0][1] - '0')}
	switch upper[1] {
	case "FWD", "RL":
		cmd.Action = MotorForward
	case "BWD", "LL":
		cmd.Action = MotorBackward
	case "REV":
		cmd.Action = MotorReverse
	case "STOP":
		cmd.Action = MotorStop
	case "SPD":
		cmd.Action = MotorSpeed
	case "STATUS":
		cmd.Action = MotorStatus
	default:
		return Unrecognized{Raw: line}
	}
	if len(fields) >= 3 && fields[2] != "" {
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Unrecognized{Raw: line}
		}
		cmd.Arg = n
		cmd.HasArg = true
	}
	if cmd.Action == MotorSpeed && !cmd.HasArg {
		return Unrecognized{Raw: line}
	}
	return cmd
}

func parseLed(upper, fields []string, line string) Command {
	if len(fields) < 3 {
		return Unrecognized{Raw: line}
	}
	switch upper[1] {
	case "ALL":
		switch upper[2] {
		case "ON":
			return LedCommand{Action: LedAll, On: true}
		case "OFF":
			return LedCommand{Action: LedAll, On: false}
		}
	case "PATTERN":
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Unrecognized{Raw: line}
		}
		return LedCommand{Action: LedPattern, Index: n}
	default:
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Unrecognized{Raw: line}
		}
		switch upper[2] {
		case "ON":
			return LedCommand{Action: LedOn, Index: n}
		case "OFF":
			return LedCommand{Action: LedOff, Index: n}
		case "TOGGLE":
			return LedCommand{Action: LedToggle, Index: n}
		}
	}
	return Unrecognized{Raw: line}
}

func parseSensor(upper, fields []string, line string) Command {
	if len(fields) < 2 {
		return Unrecognized{Raw: line}
	}
	switch upper[1] {
	case "READ":
		// Bare SENSOR:READ and an empty third field both mean read all.
		if len(fields) < 3 || upper[2] == "" || upper[2] == "ALL" {
			return SensorCommand{Action: SensorReadAll}
		}
		switch upper[2] {
		case "POWER":
			return SensorCommand{Action: SensorReadPower}
		case "TEMP":
			return SensorCommand{Action: SensorReadTemp}
		}
	case "AUTO":
		if len(fields) < 3 {
			return Unrecognized{Raw: line}
		}
		switch upper[2] {
		case "ON":
			cmd := SensorCommand{Action: SensorAutoOn}
			if len(fields) >= 4 && fields[3] != "" {
				n, err := strconv.Atoi(fields[3])
				if err != nil {
					return Unrecognized{Raw: line}
				}
				cmd.Seconds = n
				cmd.HasArg = true
			}
			return cmd
		case "OFF":
			return SensorCommand{Action: SensorAutoOff}
		}
	}
	return Unrecognized{Raw: line}
}
