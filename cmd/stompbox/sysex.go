package main

import (
	"errors"
	"fmt"
	"strconv"
)

// ============================================================================
// MIDI SysEx mirror
// ============================================================================
// Every console command is mirrored on the MIDI port as a vendor SysEx frame
// so MIDI-replaying devices can record and replay the same control stream:
//
//	0xF0 <vendor preamble> <address bytes> 0x20 <payload text bytes> 0xF7
//
// The payload text is "ON"/"OFF" for toggles, the 0-127 fader value as
// decimal text, or the raw snippet tag. Frames are hard-capped at 64 bytes;
// an oversized frame is rejected at build time rather than truncated.
// ============================================================================

// sysexPreamble is the vendor-specific header the console's SysEx dialect uses.
var sysexPreamble = []byte{0xF0, 0x00, 0x20, 0x32, 0x32}

const (
	sysexSpacer = 0x20
	sysexEnd    = 0xF7

	// maxSysExLen bounds the whole frame including preamble and terminator.
	maxSysExLen = 64
)

// ErrSysExOverflow indicates a frame that would exceed maxSysExLen.
var ErrSysExOverflow = errors.New("sysex frame exceeds maximum length")

// buildSysEx assembles the full frame for an address/payload pair.
func buildSysEx(address, payload string) ([]byte, error) {
	total := len(sysexPreamble) + len(address) + 1 + len(payload) + 1
	if total > maxSysExLen {
		return nil, fmt.Errorf("%w: %d > %d bytes (address %q)", ErrSysExOverflow, total, maxSysExLen, address)
	}

	frame := make([]byte, 0, total)
	frame = append(frame, sysexPreamble...)
	frame = append(frame, address...)
	frame = append(frame, sysexSpacer)
	frame = append(frame, payload...)
	frame = append(frame, sysexEnd)
	return frame, nil
}

// faderToMIDI converts a 0.0-1.0 fader level to the 7-bit MIDI range.
func faderToMIDI(level float64) int {
	return int(level*127 + 0.5)
}

// toggleText renders a toggle state as SysEx payload text.
func toggleText(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// faderText renders a fader level as SysEx payload text.
func faderText(level float64) string {
	return strconv.Itoa(faderToMIDI(level))
}
