package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abiosoft/ishell/v2"
	"github.com/benbjohnson/clock"
	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"roverd/config"
	"roverd/core"
	"roverd/drivers"
	"roverd/protocol"
	"roverd/serial"
)

type envConfig struct {
	Debug      bool   `env:"ROVERD_DEBUG" envDefault:"false"`
	ConfigPath string `env:"ROVERD_CONFIG" envDefault:"roverd.yaml"`
}

// peripherals is the full collaborator set, real or simulated.
type peripherals struct {
	leds    core.LedWriter
	status  core.StatusLedWriter
	motors  core.MotorOutput
	power   core.PowerSensor
	tempA   core.TempSensor
	tempB   core.TempSensor
	trigger core.TriggerInput
	link    io.ReadWriteCloser
}

func main() {
	ec := envConfig{}
	if err := env.Parse(&ec); err != nil {
		fmt.Fprintln(os.Stderr, "env:", err)
		os.Exit(1)
	}

	configPath := flag.String("config", ec.ConfigPath, "path to the board config file")
	sim := flag.Bool("sim", false, "run against simulated peripherals")
	console := flag.Bool("console", false, "attach an interactive command console on stdin")
	flag.Parse()

	logger := newLogger(ec.Debug)
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var p *peripherals
	var consoleIn *io.PipeWriter
	if *sim {
		simDev := drivers.NewSim()
		pr, pw := io.Pipe()
		consoleIn = pw
		p = &peripherals{
			leds:    simDev,
			status:  simDev,
			motors:  simDev,
			power:   simDev,
			tempA:   simDev,
			tempB:   simDev.TempB(),
			trigger: simDev,
			link:    simLink{pr, os.Stdout},
		}
		log.Infow("running with simulated peripherals")
	} else {
		p, err = openHardware(cfg)
		if err != nil {
			log.Fatalw("hardware init failed", "error", err)
		}
	}
	defer p.link.Close()

	leds := core.NewLedBank(p.leds, p.status, log)
	store := core.NewStore(uint8(cfg.Motors.RampStep), p.motors, leds, log)
	store.SetAutoPoll(cfg.Sensors.AutoPoll, time.Duration(cfg.Sensors.IntervalMillis)*time.Millisecond)

	sensors := core.NewSensorBank(p.power, p.tempA, p.tempB, log)
	clk := clock.New()
	player := core.NewPlayer(leds, clk)
	disp := protocol.NewDispatcher(store, sensors, player, log)

	sched := core.NewScheduler(store, sensors, player, p.trigger, disp.HandleLine,
		p.link, p.link, clk, log, core.SchedulerConfig{
			MotorPeriod:   time.Duration(cfg.Motors.TickMillis) * time.Millisecond,
			ButtonPeriod:  time.Duration(cfg.Button.PollMillis) * time.Millisecond,
			ButtonPattern: cfg.Button.Pattern,
		})

	if *console || *sim {
		go runConsole(consoleInWriter(consoleIn, disp))
	}

	// The intake activity unblocks only when its stream closes.
	go func() {
		<-ctx.Done()
		p.link.Close()
	}()

	log.Infow("roverd running", "sim", *sim, "serial", cfg.Serial.Device)
	sched.Run(ctx)
}

// openHardware initializes periph and builds the real collaborator set.
func openHardware(cfg *config.Config) (*peripherals, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	expander, err := drivers.NewPCA9555(bus, cfg.Leds.ExpanderAddr, cfg.Leds.ActiveLow)
	if err != nil {
		return nil, err
	}

	statusPins := make([]gpio.PinOut, 0, len(cfg.Leds.StatusPins))
	for _, name := range cfg.Leds.StatusPins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("unknown status led pin %q", name)
		}
		statusPins = append(statusPins, pin)
	}

	channels := make(map[core.MotorID]drivers.HBridgeChannel, len(cfg.Motors.Channels))
	for id, pins := range cfg.Motors.Channels {
		ch := drivers.HBridgeChannel{
			InA: gpioreg.ByName(pins.InA),
			InB: gpioreg.ByName(pins.InB),
			PWM: gpioreg.ByName(pins.PWM),
		}
		if ch.InA == nil || ch.InB == nil || ch.PWM == nil {
			return nil, fmt.Errorf("unknown pin in motor %d channel", id)
		}
		channels[core.MotorID(id)] = ch
	}

	ina, err := drivers.NewINA219(bus, cfg.Sensors.PowerAddr)
	if err != nil {
		return nil, err
	}

	buttonPin := gpioreg.ByName(cfg.Button.Pin)
	if buttonPin == nil {
		return nil, fmt.Errorf("unknown button pin %q", cfg.Button.Pin)
	}
	button, err := drivers.NewButton(buttonPin)
	if err != nil {
		return nil, err
	}

	link, err := serial.Open(&serial.Config{Device: cfg.Serial.Device, Baud: cfg.Serial.Baud})
	if err != nil {
		return nil, err
	}

	return &peripherals{
		leds:    expander,
		status:  drivers.NewStatusLeds(statusPins...),
		motors:  drivers.NewHBridge(channels),
		power:   ina,
		tempA:   drivers.NewTMP102(bus, cfg.Sensors.TempAddrA),
		tempB:   drivers.NewTMP102(bus, cfg.Sensors.TempAddrB),
		trigger: button,
		link:    link,
	}, nil
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

// simLink joins the console pipe and stdout into one command link.
type simLink struct {
	r *io.PipeReader
	w io.Writer
}

func (l simLink) Read(b []byte) (int, error)  { return l.r.Read(b) }
func (l simLink) Write(b []byte) (int, error) { return l.w.Write(b) }
func (l simLink) Close() error                { return l.r.Close() }

// consoleInWriter picks where console lines go: into the intake pipe when it
// exists (sim mode), straight to the dispatcher otherwise.
func consoleInWriter(pw *io.PipeWriter, disp *protocol.Dispatcher) func(line string) {
	if pw != nil {
		return func(line string) {
			fmt.Fprintln(pw, line)
		}
	}
	return func(line string) {
		fmt.Println(disp.HandleLine(line))
	}
}

// runConsole starts an interactive shell; any input that is not a shell
// builtin is sent through the command protocol unchanged.
func runConsole(send func(line string)) {
	shell := ishell.New()
	shell.Println("roverd console - type protocol commands (HELP for grammar)")
	shell.NotFound(func(c *ishell.Context) {
		line := c.Args[0]
		for _, arg := range c.Args[1:] {
			line += " " + arg
		}
		send(line)
	})
	shell.Run()
}
