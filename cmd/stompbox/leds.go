package main

import (
	"fmt"
	"os"
)

// LEDSink drives the LED pins. Set takes the electrical level; widget
// polarity is already applied upstream.
type LEDSink interface {
	Set(pin int, on bool) error
}

// sysfsLEDSink writes GPIO values through the sysfs interface. The pins are
// expected to be exported and configured as outputs at provisioning time.
type sysfsLEDSink struct {
	base string

	// activeLow is set for sink-wired LEDs, where the pin pulls the
	// cathode low to light the LED.
	activeLow bool
}

func newSysfsLEDSink(activeLow bool) *sysfsLEDSink {
	return &sysfsLEDSink{base: "/sys/class/gpio", activeLow: activeLow}
}

func (l *sysfsLEDSink) Set(pin int, on bool) error {
	if l.activeLow {
		on = !on
	}
	v := []byte("0\n")
	if on {
		v = []byte("1\n")
	}
	path := fmt.Sprintf("%s/gpio%d/value", l.base, pin)
	if err := os.WriteFile(path, v, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// nopLEDSink discards LED writes, for running without GPIO hardware.
type nopLEDSink struct{}

func (nopLEDSink) Set(int, bool) error { return nil }
