package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("stompbox v%s\n", version)
	fmt.Println("Footswitch bridge for Behringer X32 consoles (OSC over UDP + MIDI SysEx mirror)")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  stompbox [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that bridges physical footswitch buttons (via Linux input devices)")
	fmt.Println("  to an X32 mixing console over OSC/UDP, mirroring every command on a MIDI")
	fmt.Println("  port as vendor SysEx. In two-way mode the console's confirmation echoes")
	fmt.Println("  drive the button LEDs; in one-way mode commands are fire-and-forget with")
	fmt.Println("  a local acknowledgement flash.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (widget table, key bindings, timings)")
	fmt.Println()
	fmt.Println("  -console-host string")
	fmt.Println("        Console IP address or hostname")
	fmt.Println()
	fmt.Println("  -console-port int")
	fmt.Printf("        Console OSC port (default %d)\n", defaultConsolePort)
	fmt.Println()
	fmt.Println("  -listen-port int")
	fmt.Printf("        Local UDP port for console replies (default %d)\n", defaultListenPort)
	fmt.Println()
	fmt.Println("  -interface string")
	fmt.Println("        Network interface watched for connectivity (default \"wlan0\")")
	fmt.Println()
	fmt.Println("  -input-device string")
	fmt.Println("        Linux input event device for the footswitches (default \"/dev/input/event0\")")
	fmt.Println()
	fmt.Println("  -midi-port string")
	fmt.Println("        MIDI output port name substring for the SysEx mirror (default: first port)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/stompbox.sock\")")
	fmt.Println()
	fmt.Println("  -state-ws-port int")
	fmt.Println("        State websocket listener port (default 8890)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with the built-in widget table")
	fmt.Println("  stompbox -console-host 192.168.1.64")
	fmt.Println()
	fmt.Println("  # Custom widget table and key bindings")
	fmt.Println("  stompbox -config /etc/stompbox.yaml")
	fmt.Println()
	fmt.Println("  # Simulate a press without hardware")
	fmt.Println("  stompctl press 12")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to the input device (run as root or add user to 'input' group)")
	fmt.Println("  - The console drops remote subscribers after 10s of silence; the daemon")
	fmt.Println("    renews its subscription every 9s while connected")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		consoleHost = flag.String("console-host", "", "Console IP address or hostname")
		consolePort = flag.Int("console-port", 0, "Console OSC port")
		listenPort  = flag.Int("listen-port", 0, "Local UDP port for console replies")
		ifaceName   = flag.String("interface", "", "Network interface watched for connectivity")
		inputDevice = flag.String("input-device", "", "Linux input event device for the footswitches")
		midiPort    = flag.String("midi-port", "", "MIDI output port name substring")
		ipcSocket   = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		stateWSPort = flag.Int("state-ws-port", 0, "State websocket listener port")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	overrides := FlagOverrides{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "console-host":
			overrides.ConsoleHost = consoleHost
		case "console-port":
			overrides.ConsolePort = consolePort
		case "listen-port":
			overrides.ConsoleListenPort = listenPort
		case "interface":
			overrides.ConsoleInterface = ifaceName
		case "input-device":
			overrides.InputDevice = inputDevice
		case "midi-port":
			overrides.MIDIPort = midiPort
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocket
		case "state-ws-port":
			overrides.StateWSPort = stateWSPort
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	reg := NewRegistry(cfg.ToWidgets())
	state := NewEngineState(reg)
	engineCfg := cfg.ToEngineConfig()

	// Central event bus into the engine loop.
	events := make(chan Event, 64)

	transport, err := newConsoleTransport(cfg.Console.Host, cfg.Console.Port, cfg.Console.ListenPort, events, logger)
	if err != nil {
		logger.Error("failed to set up console transport", "error", err)
		os.Exit(1)
	}

	var midi MIDISender
	if cfg.MIDI.Enabled {
		midi, err = openMIDIOut(cfg.MIDI.Port, logger)
		if err != nil {
			// SysEx mirroring is best effort; the console leg still works.
			logger.Warn("midi mirror disabled", "error", err)
			midi = nil
		} else {
			defer midi.Close()
		}
	}

	var leds LEDSink = nopLEDSink{}
	if cfg.LEDs.Driver == "sysfs" {
		leds = newSysfsLEDSink(cfg.LEDs.ActiveLow)
	}

	fx := &effects{
		transport: transport,
		midi:      midi,
		leds:      leds,
		logger:    logger,
	}

	// Open button devices.
	var deviceFiles []*os.File
	for _, dev := range cfg.Input.Devices {
		f, err := os.Open(dev)
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			os.Exit(1)
		}
		defer f.Close()
		deviceFiles = append(deviceFiles, f)
	}

	keyToPin := make(map[int]int, len(cfg.Input.Keys))
	for _, k := range cfg.Input.Keys {
		keyToPin[k.Code] = k.Pin
	}

	// State websocket (optional).
	var hub *Hub
	var wsServer *Server
	if cfg.StateWS.Enabled {
		wsServer = NewServer(logger, events, ServerConfig{})
		hub = wsServer.Hub()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stompbox",
		"version", version,
		"console", fmt.Sprintf("%s:%d", cfg.Console.Host, cfg.Console.Port),
		"listen_port", cfg.Console.ListenPort,
		"interface", cfg.Console.Interface,
		"devices", cfg.Input.Devices,
		"midi_enabled", midi != nil,
		"widgets", len(reg.Widgets()),
		"ipc", cfg.IPC.SocketPath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runEngine(ctx, events, fx, reg, state, engineCfg, cfg.Engine.TickHz, hub, logger)
		return nil
	})

	g.Go(func() error {
		return runIPCServer(ctx, cfg.IPC.SocketPath, events, logger)
	})

	g.Go(func() error {
		interval := time.Duration(cfg.Console.LinkPollMS) * time.Millisecond
		return watchLink(ctx, cfg.Console.Interface, interval, events, logger)
	})

	if wsServer != nil {
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
		g.Go(func() error {
			mux := http.NewServeMux()
			wsServer.Register(mux, cfg.StateWS.Path)
			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.StateWS.Port),
				Handler: mux,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Info("state ws listening", "port", cfg.StateWS.Port, "path", cfg.StateWS.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("state ws server: %w", err)
			}
			return nil
		})
	}

	// Button translation: raw input events become ButtonDown/ButtonUp and
	// mode switch edges. The switch is wired closed = one-way.
	g.Go(func() error {
		raw := make(chan inputEvent, 64)
		readErr := make(chan error, 1)
		if len(deviceFiles) == 1 {
			// One device needs no epoll, a blocking reader is enough.
			go readInputEvents(deviceFiles[0], raw, readErr)
		} else {
			go readInputEventsEpoll(deviceFiles, raw, readErr)
		}

		for {
			select {
			case <-ctx.Done():
				return nil

			case err := <-readErr:
				return fmt.Errorf("input reader stopped: %w", err)

			case ev := <-raw:
				if ev.Type != EV_KEY {
					continue
				}

				if int(ev.Code) == cfg.Input.ModeSwitchCode {
					switch ev.Value {
					case evValuePress:
						events <- ModeSwitchChanged{TwoWay: false}
					case evValueRelease:
						events <- ModeSwitchChanged{TwoWay: true}
					}
					continue
				}

				pin, ok := keyToPin[int(ev.Code)]
				if !ok {
					continue
				}
				switch ev.Value {
				case evValuePress:
					events <- ButtonDown{Pin: pin}
				case evValueRelease:
					events <- ButtonUp{Pin: pin}
				}
				// Repeats are ignored; hold duration is measured by the engine.
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("stompbox stopped", "error", err)
		transport.Close()
		os.Exit(1)
	}

	logger.Info("shutting down")
	transport.Close()
}
