package protocol

import (
	"testing"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		line string
		want Command
	}{
		// Motor commands.
		{"M1:FWD", MotorCommand{ID: 1, Action: MotorForward}},
		{"M2:BWD:75", MotorCommand{ID: 2, Action: MotorBackward, Arg: 75, HasArg: true}},
		{"M3:RL:40", MotorCommand{ID: 3, Action: MotorForward, Arg: 40, HasArg: true}},
		{"M4:LL", MotorCommand{ID: 4, Action: MotorBackward}},
		{"M1:REV", MotorCommand{ID: 1, Action: MotorReverse}},
		{"M2:STOP", MotorCommand{ID: 2, Action: MotorStop}},
		{"M1:SPD:60", MotorCommand{ID: 1, Action: MotorSpeed, Arg: 60, HasArg: true}},
		{"M1:STATUS", MotorCommand{ID: 1, Action: MotorStatus}},

		// Keywords match case-insensitively, fields are trimmed.
		{"m2:bwd:75", MotorCommand{ID: 2, Action: MotorBackward, Arg: 75, HasArg: true}},
		{"  M3 : fwd : 40  ", MotorCommand{ID: 3, Action: MotorForward, Arg: 40, HasArg: true}},
		{"led:3:toggle", LedCommand{Action: LedToggle, Index: 3}},
		{"sensor:auto:off", SensorCommand{Action: SensorAutoOff}},
		{"help", SystemCommand{Kind: SysHelp}},

		// SPD needs its argument.
		{"M1:SPD", Unrecognized{Raw: "M1:SPD"}},
		// Motor ids outside 1..4 match nothing.
		{"M5:FWD", Unrecognized{Raw: "M5:FWD"}},
		{"M0:STOP", Unrecognized{Raw: "M0:STOP"}},
		{"M12:FWD", Unrecognized{Raw: "M12:FWD"}},
		// Non-numeric arguments are rejected, not defaulted.
		{"M1:FWD:fast", Unrecognized{Raw: "M1:FWD:fast"}},
		{"M1:DANCE", Unrecognized{Raw: "M1:DANCE"}},

		// LED commands.
		{"LED:ALL:ON", LedCommand{Action: LedAll, On: true}},
		{"LED:ALL:OFF", LedCommand{Action: LedAll, On: false}},
		{"LED:PATTERN:2", LedCommand{Action: LedPattern, Index: 2}},
		{"LED:7:ON", LedCommand{Action: LedOn, Index: 7}},
		{"LED:12:OFF", LedCommand{Action: LedOff, Index: 12}},
		// Out-of-range indices parse; the dispatcher decides what to do.
		{"LED:99:ON", LedCommand{Action: LedOn, Index: 99}},
		{"LED:X:ON", Unrecognized{Raw: "LED:X:ON"}},
		{"LED:PATTERN:x", Unrecognized{Raw: "LED:PATTERN:x"}},
		{"LED:3", Unrecognized{Raw: "LED:3"}},
		{"LED:3:BLINK", Unrecognized{Raw: "LED:3:BLINK"}},

		// Sensor commands.
		{"SENSOR:READ", SensorCommand{Action: SensorReadAll}},
		{"SENSOR:READ:", SensorCommand{Action: SensorReadAll}},
		{"SENSOR:READ:ALL", SensorCommand{Action: SensorReadAll}},
		{"SENSOR:READ:POWER", SensorCommand{Action: SensorReadPower}},
		{"SENSOR:READ:TEMP", SensorCommand{Action: SensorReadTemp}},
		{"SENSOR:READ:HUMIDITY", Unrecognized{Raw: "SENSOR:READ:HUMIDITY"}},
		{"SENSOR:AUTO:ON", SensorCommand{Action: SensorAutoOn}},
		{"SENSOR:AUTO:ON:10", SensorCommand{Action: SensorAutoOn, Seconds: 10, HasArg: true}},
		{"SENSOR:AUTO:OFF", SensorCommand{Action: SensorAutoOff}},
		{"SENSOR:AUTO:ON:soon", Unrecognized{Raw: "SENSOR:AUTO:ON:soon"}},
		{"SENSOR:AUTO", Unrecognized{Raw: "SENSOR:AUTO"}},
		{"SENSOR", Unrecognized{Raw: "SENSOR"}},

		// System commands stand alone.
		{"STOP", SystemCommand{Kind: SysStop}},
		{"EMERGENCY", SystemCommand{Kind: SysEmergency}},
		{"STATUS", SystemCommand{Kind: SysStatus}},
		{"HELP", SystemCommand{Kind: SysHelp}},
		{"STATUS:EXTRA", Unrecognized{Raw: "STATUS:EXTRA"}},

		{"", Unrecognized{Raw: ""}},
		{"FOO:BAR", Unrecognized{Raw: "FOO:BAR"}},
		{"GO FORWARD", Unrecognized{Raw: "GO FORWARD"}},
	} {
		if got := Parse(tc.line); got != tc.want {
			t.Errorf("Parse(%q) = %#v, want %#v", tc.line, got, tc.want)
		}
	}
}
