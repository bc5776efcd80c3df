package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the stompbox daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Defaults and
// validation are centralized here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Console connection
	Console ConsoleConfig `yaml:"console"`

	// Button input devices and key bindings
	Input InputConfig `yaml:"input"`

	// MIDI mirror output
	MIDI MIDIConfig `yaml:"midi"`

	// Engine timing
	Engine EngineFileConfig `yaml:"engine"`

	// State websocket for monitoring UIs
	StateWS StateWSConfig `yaml:"state_ws"`

	// IPC socket
	IPC IPCConfig `yaml:"ipc"`

	// LED output driver
	LEDs LEDConfig `yaml:"leds"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Widget table
	Widgets []WidgetConfig `yaml:"widgets"`
}

type ConsoleConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	ListenPort int    `yaml:"listen_port"`

	// Interface is the network interface watched for connectivity.
	Interface  string `yaml:"interface"`
	LinkPollMS int    `yaml:"link_poll_ms"`
}

type InputConfig struct {
	Devices []string `yaml:"devices"`

	// Keys maps input event key codes to button pins.
	Keys []KeyBinding `yaml:"keys"`

	// ModeSwitchCode is the key code of the two-way/one-way mode switch.
	// The switch is wired closed = one-way, so a press event selects
	// one-way mode and a release selects two-way.
	ModeSwitchCode int `yaml:"mode_switch_code"`
}

type KeyBinding struct {
	Code int `yaml:"code"`
	Pin  int `yaml:"pin"`
}

type MIDIConfig struct {
	Enabled bool `yaml:"enabled"`

	// Port is a case-insensitive substring matched against output port
	// names; empty picks the first available port.
	Port string `yaml:"port,omitempty"`
}

type EngineFileConfig struct {
	TickHz           int    `yaml:"tick_hz"`
	LongPressMS      int    `yaml:"long_press_ms"`
	RenewMS          int    `yaml:"renew_ms"`
	SettleMS         int    `yaml:"settle_ms"`
	SubscribeAddress string `yaml:"subscribe_address"`
	FlashTwoWayMS    int    `yaml:"flash_two_way_ms"`
	FlashOneWayMS    int    `yaml:"flash_one_way_ms"`
}

type StateWSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type LEDConfig struct {
	// Driver is "sysfs" or "none".
	Driver string `yaml:"driver"`

	// ActiveLow is set for sink-wired LEDs.
	ActiveLow bool `yaml:"active_low"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WidgetConfig is the user-facing widget table entry as represented in YAML.
type WidgetConfig struct {
	Name      string `yaml:"name"`
	ButtonPin int    `yaml:"button_pin"`
	LEDPin    int    `yaml:"led_pin"`

	// Trigger is "press" or "long_press".
	Trigger string `yaml:"trigger"`

	// Kind is "toggle", "fader" or "snippet".
	Kind string `yaml:"kind"`

	ReverseLED bool `yaml:"reverse_led,omitempty"`

	Address string `yaml:"address"`

	// Snippet/Index are the CapSnippet payloads; Level is the CapFader level.
	Snippet string   `yaml:"snippet,omitempty"`
	Index   *int     `yaml:"index,omitempty"`
	Level   *float64 `yaml:"level,omitempty"`
}

func intPtr(v int) *int { return &v }

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Console: ConsoleConfig{
			Host:       "192.168.1.64",
			Port:       defaultConsolePort,
			ListenPort: defaultListenPort,
			Interface:  "wlan0",
			LinkPollMS: defaultLinkPollMS,
		},
		Input: InputConfig{
			Devices: []string{"/dev/input/event0"},
			Keys: []KeyBinding{
				{Code: BTN_0, Pin: 12},
				{Code: BTN_1, Pin: 14},
				{Code: BTN_2, Pin: 27},
				{Code: BTN_3, Pin: 26},
				{Code: BTN_4, Pin: 25},
				{Code: BTN_5, Pin: 33},
			},
			ModeSwitchCode: BTN_6,
		},
		MIDI: MIDIConfig{
			Enabled: true,
			Port:    "",
		},
		Engine: EngineFileConfig{
			TickHz:           defaultTickHz,
			LongPressMS:      defaultLongPressMS,
			RenewMS:          defaultRenewMS,
			SettleMS:         defaultSettleMS,
			SubscribeAddress: defaultSubscribeAddress,
			FlashTwoWayMS:    defaultFlashTwoWayMS,
			FlashOneWayMS:    defaultFlashOneWayMS,
		},
		StateWS: StateWSConfig{
			Enabled: true,
			Port:    8890,
			Path:    "/ws/state",
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/stompbox.sock",
		},
		LEDs: LEDConfig{
			Driver:    "sysfs",
			ActiveLow: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Widgets: []WidgetConfig{
			{Name: "Bttn A__", ButtonPin: 12, LEDPin: 13, Trigger: "long_press", Kind: "snippet", Address: "/load", Snippet: "snippet", Index: intPtr(99)},
			{Name: "Button A", ButtonPin: 12, LEDPin: 13, Trigger: "press", Kind: "snippet", Address: "/load", Snippet: "snippet", Index: intPtr(13)},
			{Name: "Button B", ButtonPin: 14, LEDPin: 15, Trigger: "press", Kind: "snippet", Address: "/load", Snippet: "snippet", Index: intPtr(15)},
			{Name: "Button C", ButtonPin: 27, LEDPin: 2, Trigger: "press", Kind: "snippet", Address: "/load", Snippet: "snippet", Index: intPtr(12)},
			{Name: "Button D", ButtonPin: 26, LEDPin: 0, Trigger: "press", Kind: "snippet", Address: "/load", Snippet: "snippet", Index: intPtr(11)},
			{Name: "Button E", ButtonPin: 25, LEDPin: 4, Trigger: "press", Kind: "toggle", ReverseLED: true, Address: "/dca/5/on"},
			{Name: "Button F", ButtonPin: 33, LEDPin: 5, Trigger: "press", Kind: "toggle", Address: "/config/mute/6"},
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies flag values on top of a loaded config. Flags pass
// pointers; each override is only applied if the pointer is non-nil.
type FlagOverrides struct {
	ConsoleHost       *string
	ConsolePort       *int
	ConsoleListenPort *int
	ConsoleInterface  *string

	InputDevice *string

	MIDIPort *string

	IPCSocketPath *string
	StateWSPort   *int

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.ConsoleHost != nil {
		cfg.Console.Host = *o.ConsoleHost
	}
	if o.ConsolePort != nil {
		cfg.Console.Port = *o.ConsolePort
	}
	if o.ConsoleListenPort != nil {
		cfg.Console.ListenPort = *o.ConsoleListenPort
	}
	if o.ConsoleInterface != nil {
		cfg.Console.Interface = *o.ConsoleInterface
	}

	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}

	if o.MIDIPort != nil {
		cfg.MIDI.Port = *o.MIDIPort
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSPort != nil {
		cfg.StateWS.Port = *o.StateWSPort
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Console
	if c.Console.Host == "" {
		return errors.New("console.host must not be empty")
	}
	if c.Console.Port <= 0 || c.Console.Port > 65535 {
		return errors.New("console.port must be between 1 and 65535")
	}
	if c.Console.ListenPort <= 0 || c.Console.ListenPort > 65535 {
		return errors.New("console.listen_port must be between 1 and 65535")
	}
	if c.Console.Interface == "" {
		return errors.New("console.interface must not be empty")
	}
	if c.Console.LinkPollMS <= 0 {
		return errors.New("console.link_poll_ms must be > 0")
	}

	// Input
	if len(c.Input.Devices) == 0 {
		return errors.New("input.devices must not be empty")
	}
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	pins := make(map[int]bool, len(c.Input.Keys))
	for i, k := range c.Input.Keys {
		if k.Code <= 0 {
			return fmt.Errorf("input.keys[%d].code must be > 0", i)
		}
		if pins[k.Pin] {
			return fmt.Errorf("input.keys[%d]: pin %d bound more than once", i, k.Pin)
		}
		pins[k.Pin] = true
	}

	// Engine
	if c.Engine.TickHz <= 0 || c.Engine.TickHz > 1000 {
		return errors.New("engine.tick_hz must be between 1 and 1000")
	}
	if c.Engine.LongPressMS <= 0 {
		return errors.New("engine.long_press_ms must be > 0")
	}
	if c.Engine.RenewMS <= 0 {
		return errors.New("engine.renew_ms must be > 0")
	}
	if c.Engine.SettleMS < 0 {
		return errors.New("engine.settle_ms must be >= 0")
	}
	if c.Engine.SubscribeAddress == "" {
		return errors.New("engine.subscribe_address must not be empty")
	}
	if c.Engine.FlashTwoWayMS <= 0 || c.Engine.FlashOneWayMS <= 0 {
		return errors.New("engine flash durations must be > 0")
	}

	// State websocket
	if c.StateWS.Enabled {
		if c.StateWS.Port <= 0 || c.StateWS.Port > 65535 {
			return errors.New("state_ws.port must be between 1 and 65535")
		}
		if c.StateWS.Path == "" {
			return errors.New("state_ws.path must not be empty")
		}
	}

	// LEDs
	if c.LEDs.Driver != "sysfs" && c.LEDs.Driver != "none" {
		return fmt.Errorf("leds.driver must be %q or %q", "sysfs", "none")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	// Widgets
	if len(c.Widgets) == 0 {
		return errors.New("widgets must not be empty")
	}
	for i, w := range c.Widgets {
		if w.Name == "" {
			return fmt.Errorf("widgets[%d].name must not be empty", i)
		}
		if w.Address == "" || w.Address[0] != '/' {
			return fmt.Errorf("widgets[%d].address must start with '/'", i)
		}
		switch w.Trigger {
		case "press", "long_press":
		default:
			return fmt.Errorf("widgets[%d].trigger must be %q or %q", i, "press", "long_press")
		}
		switch w.Kind {
		case "toggle", "snippet":
		case "fader":
			if w.Level == nil {
				return fmt.Errorf("widgets[%d]: fader requires a level", i)
			}
			if *w.Level < 0 || *w.Level > 1 {
				return fmt.Errorf("widgets[%d].level must be within [0, 1]", i)
			}
		default:
			return fmt.Errorf("widgets[%d].kind must be one of: toggle, fader, snippet", i)
		}
	}

	return nil
}

// ToWidgets converts the widget table into registry entries. Call after
// Validate.
func (c *Config) ToWidgets() []Widget {
	out := make([]Widget, 0, len(c.Widgets))
	for _, w := range c.Widgets {
		widget := Widget{
			Name:         w.Name,
			ButtonPin:    w.ButtonPin,
			LEDPin:       w.LEDPin,
			ReverseLED:   w.ReverseLED,
			Address:      w.Address,
			SnippetTag:   w.Snippet,
			SnippetIndex: -1,
		}
		if w.Trigger == "long_press" {
			widget.Trigger = TriggerLongPress
		}
		switch w.Kind {
		case "fader":
			widget.Kind = CapFader
			widget.FaderLevel = *w.Level
		case "snippet":
			widget.Kind = CapSnippet
			if w.Index != nil {
				widget.SnippetIndex = *w.Index
			}
		default:
			widget.Kind = CapToggle
		}
		out = append(out, widget)
	}
	return out
}

// ToEngineConfig converts file config into the reducer's timing config.
func (c *Config) ToEngineConfig() EngineConfig {
	return EngineConfig{
		LongPress:        time.Duration(c.Engine.LongPressMS) * time.Millisecond,
		RenewInterval:    time.Duration(c.Engine.RenewMS) * time.Millisecond,
		SettleDelay:      time.Duration(c.Engine.SettleMS) * time.Millisecond,
		SubscribeAddress: c.Engine.SubscribeAddress,
		FlashTwoWay:      time.Duration(c.Engine.FlashTwoWayMS) * time.Millisecond,
		FlashOneWay:      time.Duration(c.Engine.FlashOneWayMS) * time.Millisecond,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
