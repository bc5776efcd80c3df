package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig_Validates: the shipped defaults must always be usable.
func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if len(cfg.Widgets) != 7 {
		t.Errorf("expected 7 default widgets, got %d", len(cfg.Widgets))
	}
}

// TestDefaultConfig_ToWidgets: conversion preserves the default widget table.
func TestDefaultConfig_ToWidgets(t *testing.T) {
	cfg := DefaultConfig()
	widgets := cfg.ToWidgets()

	if len(widgets) != 7 {
		t.Fatalf("expected 7 widgets, got %d", len(widgets))
	}

	// First entry: the long-press snippet sharing pin 12.
	w := widgets[0]
	if w.Trigger != TriggerLongPress || w.Kind != CapSnippet || w.SnippetIndex != 99 {
		t.Errorf("widget 0 mismatch: %+v", w)
	}

	// The reverse-wired DCA toggle.
	w = widgets[5]
	if w.Kind != CapToggle || !w.ReverseLED || w.Address != "/dca/5/on" {
		t.Errorf("widget 5 mismatch: %+v", w)
	}
	// Toggles never carry a snippet index.
	if w.SnippetIndex != -1 {
		t.Errorf("widget 5 snippet index: got %d, want -1", w.SnippetIndex)
	}

	reg := NewRegistry(widgets)
	pins := reg.ButtonPins()
	want := []int{12, 14, 27, 26, 25, 33}
	if len(pins) != len(want) {
		t.Fatalf("button pins: got %v, want %v", pins, want)
	}
	for i := range want {
		if pins[i] != want[i] {
			t.Fatalf("button pins: got %v, want %v", pins, want)
		}
	}
}

// TestLoadConfigFile_OverridesDefaults: file values replace defaults, the
// rest stay.
func TestLoadConfigFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stompbox.yaml")
	content := `
console:
  host: 10.0.0.5
engine:
  long_press_ms: 1500
widgets:
  - name: Kick
    button_pin: 7
    led_pin: 8
    trigger: press
    kind: toggle
    address: /ch/01/mix/on
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config failed validation: %v", err)
	}

	if cfg.Console.Host != "10.0.0.5" {
		t.Errorf("console.host: got %q", cfg.Console.Host)
	}
	if cfg.Console.Port != defaultConsolePort {
		t.Errorf("console.port default lost: got %d", cfg.Console.Port)
	}
	if cfg.Engine.LongPressMS != 1500 {
		t.Errorf("engine.long_press_ms: got %d", cfg.Engine.LongPressMS)
	}
	if cfg.Engine.RenewMS != defaultRenewMS {
		t.Errorf("engine.renew_ms default lost: got %d", cfg.Engine.RenewMS)
	}
	if len(cfg.Widgets) != 1 || cfg.Widgets[0].Name != "Kick" {
		t.Errorf("widgets not replaced: %+v", cfg.Widgets)
	}
}

// TestLoadConfigFile_RejectsUnknownFields: typos must not pass silently.
func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stompbox.yaml")
	if err := os.WriteFile(path, []byte("consoel:\n  host: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected an error for unknown field")
	}
}

// TestValidate_Errors covers the main invariants.
func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty host", func(c *Config) { c.Console.Host = "" }, "console.host"},
		{"bad port", func(c *Config) { c.Console.Port = 0 }, "console.port"},
		{"no devices", func(c *Config) { c.Input.Devices = nil }, "input.devices"},
		{"duplicate pin", func(c *Config) {
			c.Input.Keys = append(c.Input.Keys, KeyBinding{Code: BTN_6, Pin: 12})
		}, "bound more than once"},
		{"bad tick hz", func(c *Config) { c.Engine.TickHz = 0 }, "tick_hz"},
		{"bad subscribe address", func(c *Config) { c.Engine.SubscribeAddress = "" }, "subscribe_address"},
		{"bad led driver", func(c *Config) { c.LEDs.Driver = "i2c" }, "leds.driver"},
		{"no widgets", func(c *Config) { c.Widgets = nil }, "widgets"},
		{"bad trigger", func(c *Config) { c.Widgets[0].Trigger = "double" }, "trigger"},
		{"bad kind", func(c *Config) { c.Widgets[0].Kind = "knob" }, "kind"},
		{"relative address", func(c *Config) { c.Widgets[0].Address = "load" }, "address"},
		{"fader without level", func(c *Config) {
			c.Widgets[0].Kind = "fader"
			c.Widgets[0].Level = nil
		}, "level"},
		{"fader level out of range", func(c *Config) {
			lvl := 1.5
			c.Widgets[0].Kind = "fader"
			c.Widgets[0].Level = &lvl
		}, "level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

// TestFlagOverrides_Apply: only set pointers are applied.
func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()

	host := "10.1.1.1"
	level := "debug"
	FlagOverrides{ConsoleHost: &host, LogLevel: &level}.Apply(&cfg)

	if cfg.Console.Host != host {
		t.Errorf("console.host: got %q, want %q", cfg.Console.Host, host)
	}
	if cfg.Logging.Level != level {
		t.Errorf("logging.level: got %q, want %q", cfg.Logging.Level, level)
	}
	if cfg.Console.Port != defaultConsolePort {
		t.Errorf("unrelated field changed: port %d", cfg.Console.Port)
	}
}
