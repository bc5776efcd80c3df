package main

import (
	"encoding/binary"
	"io"
	"os"
)

// inputEvent mirrors the 64-bit Linux input_event layout:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

// decodeInputEvent unpacks one little-endian input_event record. buf must
// hold at least inputEventSize bytes.
func decodeInputEvent(buf []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// readInputEvents blocks on a single device and forwards decoded events.
// Multi-device setups go through the epoll reader instead; this one needs no
// poll syscalls and works on any file that delivers whole records, which is
// also what the tests feed it.
func readInputEvents(f *os.File, events chan<- inputEvent, readErr chan<- error) {
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			readErr <- err
			return
		}
		events <- decodeInputEvent(buf)
	}
}
