// Package config loads the board configuration from a yaml file with
// environment-variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config is the full board configuration.
type Config struct {
	Serial  SerialConfig `yaml:"serial"`
	Motors  MotorConfig  `yaml:"motors"`
	Leds    LedConfig    `yaml:"leds"`
	Sensors SensorConfig `yaml:"sensors"`
	Button  ButtonConfig `yaml:"button"`
}

// SerialConfig describes the command link.
type SerialConfig struct {
	Device string `yaml:"device" env:"ROVERD_SERIAL_DEVICE"`
	Baud   int    `yaml:"baud" env:"ROVERD_SERIAL_BAUD"`
}

// MotorConfig tunes the ramp engine and names the H-bridge pins.
type MotorConfig struct {
	TickMillis int               `yaml:"tick_millis"`
	RampStep   int               `yaml:"ramp_step"`
	Channels   map[int]MotorPins `yaml:"channels"`
}

// MotorPins names the H-bridge pins for one motor channel.
type MotorPins struct {
	InA string `yaml:"in_a"`
	InB string `yaml:"in_b"`
	PWM string `yaml:"pwm"`
}

// LedConfig describes the I/O expander.
type LedConfig struct {
	ExpanderAddr uint16   `yaml:"expander_addr"`
	ActiveLow    bool     `yaml:"active_low"`
	StatusPins   []string `yaml:"status_pins"`
}

// SensorConfig describes the shared sensor bus and the auto-poll defaults.
type SensorConfig struct {
	PowerAddr      uint16 `yaml:"power_addr"`
	TempAddrA      uint16 `yaml:"temp_addr_a"`
	TempAddrB      uint16 `yaml:"temp_addr_b"`
	AutoPoll       bool   `yaml:"auto_poll" env:"ROVERD_AUTO_POLL"`
	IntervalMillis int    `yaml:"interval_millis" env:"ROVERD_POLL_INTERVAL_MS"`
}

// ButtonConfig describes the pattern trigger input.
type ButtonConfig struct {
	Pin        string `yaml:"pin"`
	PollMillis int    `yaml:"poll_millis"`
	Pattern    int    `yaml:"pattern"`
}

// Defaults returns the stock board configuration.
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, fills defaults and applies ROVERD_* env overrides.
// A missing file is not an error; the defaults then apply as-is.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: unable to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills missing values with the stock board setup.
func applyDefaults(cfg *Config) {
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyUSB0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Motors.TickMillis == 0 {
		cfg.Motors.TickMillis = 20
	}
	if cfg.Motors.RampStep == 0 {
		cfg.Motors.RampStep = 5
	}
	if cfg.Motors.Channels == nil {
		cfg.Motors.Channels = map[int]MotorPins{
			1: {InA: "GPIO17", InB: "GPIO27", PWM: "GPIO12"},
			2: {InA: "GPIO22", InB: "GPIO23", PWM: "GPIO13"},
			3: {InA: "GPIO24", InB: "GPIO25", PWM: "GPIO18"},
			4: {InA: "GPIO16", InB: "GPIO20", PWM: "GPIO19"},
		}
	}
	if cfg.Leds.ExpanderAddr == 0 {
		cfg.Leds.ExpanderAddr = 0x20
	}
	if cfg.Leds.StatusPins == nil {
		cfg.Leds.StatusPins = []string{"GPIO5", "GPIO6"}
	}
	if cfg.Sensors.PowerAddr == 0 {
		cfg.Sensors.PowerAddr = 0x40
	}
	if cfg.Sensors.TempAddrA == 0 {
		cfg.Sensors.TempAddrA = 0x48
	}
	if cfg.Sensors.TempAddrB == 0 {
		cfg.Sensors.TempAddrB = 0x49
	}
	if cfg.Sensors.IntervalMillis == 0 {
		cfg.Sensors.IntervalMillis = 5000
	}
	if cfg.Button.Pin == "" {
		cfg.Button.Pin = "GPIO26"
	}
	if cfg.Button.PollMillis == 0 {
		cfg.Button.PollMillis = 50
	}
	if cfg.Button.Pattern == 0 {
		cfg.Button.Pattern = 1
	}
}

// Validate rejects configurations the firmware cannot run with. Numeric
// tuning values are range-checked here rather than silently clamped: unlike
// runtime motor commands, a bad config file should fail loudly at boot.
func (c *Config) Validate() error {
	if c.Motors.RampStep < 1 || c.Motors.RampStep > 255 {
		return fmt.Errorf("config: ramp_step %d out of range 1-255", c.Motors.RampStep)
	}
	if c.Motors.TickMillis < 1 {
		return fmt.Errorf("config: tick_millis %d must be positive", c.Motors.TickMillis)
	}
	if c.Sensors.IntervalMillis < 1000 {
		return fmt.Errorf("config: interval_millis %d below minimum 1000", c.Sensors.IntervalMillis)
	}
	if c.Button.Pattern < 1 || c.Button.Pattern > 3 {
		return fmt.Errorf("config: button pattern %d out of range 1-3", c.Button.Pattern)
	}
	for id := 1; id <= 4; id++ {
		if _, ok := c.Motors.Channels[id]; !ok {
			return fmt.Errorf("config: no pin channel for motor %d", id)
		}
	}
	return nil
}
