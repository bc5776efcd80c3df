package main

import (
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDISender is the outbound MIDI port used for the SysEx mirror.
type MIDISender interface {
	Send(frame []byte) error
	Close() error
}

type rtmidiSender struct {
	drv *rtmididrv.Driver
	out drivers.Out
}

// openMIDIOut opens the first MIDI output port whose name contains pattern
// (case insensitive). An empty pattern picks the first available port.
func openMIDIOut(pattern string, logger *slog.Logger) (MIDISender, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("init midi driver: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi outputs: %w", err)
	}

	for _, out := range outs {
		if pattern != "" && !containsCI(out.String(), pattern) {
			continue
		}
		if err := out.Open(); err != nil {
			drv.Close()
			return nil, fmt.Errorf("open midi output %q: %w", out.String(), err)
		}
		logger.Info("midi output open", "port", out.String())
		return &rtmidiSender{drv: drv, out: out}, nil
	}

	drv.Close()
	return nil, fmt.Errorf("no midi output matching %q", pattern)
}

func (s *rtmidiSender) Send(frame []byte) error {
	return s.out.Send(frame)
}

func (s *rtmidiSender) Close() error {
	s.out.Close()
	return s.drv.Close()
}

func containsCI(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
