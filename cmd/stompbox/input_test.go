package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

// TestReadInputEvents_DecodesRecords feeds raw input_event records through a
// pipe and checks the single-device reader decodes and forwards them.
func TestReadInputEvents_DecodesRecords(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	events := make(chan inputEvent, 4)
	readErr := make(chan error, 1)
	go readInputEvents(r, events, readErr)

	want := []inputEvent{
		{Sec: 1748781000, Usec: 250, Type: EV_KEY, Code: BTN_0, Value: evValuePress},
		{Sec: 1748781000, Usec: 900, Type: EV_KEY, Code: BTN_0, Value: evValueRelease},
	}
	var buf bytes.Buffer
	for _, ev := range want {
		if err := binary.Write(&buf, binary.LittleEndian, ev); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i, wantEv := range want {
		select {
		case got := <-events:
			if got != wantEv {
				t.Errorf("event %d: got %+v, want %+v", i, got, wantEv)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}

	// A truncated trailing record ends the reader with an error.
	if _, err := w.Write(make([]byte, inputEventSize/2)); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	w.Close()

	select {
	case err := <-readErr:
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected unexpected-EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reader exit")
	}
}

// TestDecodeInputEvent_Layout pins the little-endian field offsets.
func TestDecodeInputEvent_Layout(t *testing.T) {
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], 7)
	binary.LittleEndian.PutUint64(buf[8:16], 11)
	binary.LittleEndian.PutUint16(buf[16:18], EV_KEY)
	binary.LittleEndian.PutUint16(buf[18:20], BTN_4)
	binary.LittleEndian.PutUint32(buf[20:24], evValueRepeat)

	got := decodeInputEvent(buf)
	want := inputEvent{Sec: 7, Usec: 11, Type: EV_KEY, Code: BTN_4, Value: evValueRepeat}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
