package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// TestBuildSysEx_FrameLayout verifies the exact frame structure.
func TestBuildSysEx_FrameLayout(t *testing.T) {
	frame, err := buildSysEx("/dca/5/on", "ON")
	if err != nil {
		t.Fatalf("buildSysEx failed: %v", err)
	}

	want := append([]byte{}, sysexPreamble...)
	want = append(want, []byte("/dca/5/on")...)
	want = append(want, sysexSpacer)
	want = append(want, []byte("ON")...)
	want = append(want, sysexEnd)

	if !bytes.Equal(frame, want) {
		t.Errorf("frame mismatch:\n got %v\nwant %v", frame, want)
	}
	if frame[0] != 0xF0 || frame[len(frame)-1] != 0xF7 {
		t.Errorf("frame not properly delimited: % x", frame)
	}
}

// TestBuildSysEx_Overflow rejects oversized frames instead of truncating.
func TestBuildSysEx_Overflow(t *testing.T) {
	long := "/" + strings.Repeat("x", maxSysExLen)
	_, err := buildSysEx(long, "ON")
	if err == nil {
		t.Fatal("expected an error for oversized frame")
	}
	if !errors.Is(err, ErrSysExOverflow) {
		t.Errorf("expected ErrSysExOverflow, got %v", err)
	}
}

// TestBuildSysEx_MaxLengthBoundary: a frame of exactly maxSysExLen bytes is fine.
func TestBuildSysEx_MaxLengthBoundary(t *testing.T) {
	// preamble(5) + address + spacer(1) + payload(2) + end(1) == 64
	addr := "/" + strings.Repeat("a", maxSysExLen-len(sysexPreamble)-1-2-1-1)
	frame, err := buildSysEx(addr, "ON")
	if err != nil {
		t.Fatalf("buildSysEx failed at boundary: %v", err)
	}
	if len(frame) != maxSysExLen {
		t.Errorf("expected %d-byte frame, got %d", maxSysExLen, len(frame))
	}

	if _, err := buildSysEx(addr+"a", "ON"); !errors.Is(err, ErrSysExOverflow) {
		t.Errorf("expected ErrSysExOverflow one byte over, got %v", err)
	}
}

// TestFaderToMIDI checks the 7-bit mapping including rounding.
func TestFaderToMIDI(t *testing.T) {
	cases := []struct {
		level float64
		want  int
	}{
		{0.0, 0},
		{1.0, 127},
		{0.5, 64},  // 63.5 rounds up
		{0.75, 95}, // 95.25 rounds down
		{0.25, 32}, // 31.75 rounds up
	}
	for _, tc := range cases {
		if got := faderToMIDI(tc.level); got != tc.want {
			t.Errorf("faderToMIDI(%v) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

// TestPayloadText covers the toggle and fader payload rendering.
func TestPayloadText(t *testing.T) {
	if got := toggleText(true); got != "ON" {
		t.Errorf("toggleText(true) = %q, want %q", got, "ON")
	}
	if got := toggleText(false); got != "OFF" {
		t.Errorf("toggleText(false) = %q, want %q", got, "OFF")
	}
	if got := faderText(0.75); got != "95" {
		t.Errorf("faderText(0.75) = %q, want %q", got, "95")
	}
}
