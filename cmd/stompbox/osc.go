package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// OSC wire codec
// ============================================================================
// The console speaks plain OSC over UDP: a NUL-padded address string, a
// NUL-padded type tag string (",", then one tag per argument), then the
// arguments themselves, each 4-byte aligned and big-endian.
//
// This codec is deliberately narrow: exact literal addresses only, and only
// the three argument types the console uses (int32, float32, short string).
// A datagram that fails to parse is reported as ErrMalformedMessage; a
// well-formed message whose address matches no widget is NOT an error and is
// handled by the reducer as an unmatched no-op.
// ============================================================================

// ErrMalformedMessage indicates an inbound datagram that is not valid OSC.
var ErrMalformedMessage = errors.New("malformed osc message")

// Arg is one typed OSC argument.
type Arg interface {
	oscTypeTag() byte
}

// Int32 is an OSC 'i' argument.
type Int32 int32

// Float32 is an OSC 'f' argument.
type Float32 float32

// String is an OSC 's' argument.
type String string

func (Int32) oscTypeTag() byte   { return 'i' }
func (Float32) oscTypeTag() byte { return 'f' }
func (String) oscTypeTag() byte  { return 's' }

// Message is a single OSC message: an address plus an ordered argument list.
// A Message with no arguments doubles as a bare state query: the console
// replies to a naked address with the current value at that address.
type Message struct {
	Address string
	Args    []Arg
}

// Encode serializes the message to its wire form.
func (m Message) Encode() ([]byte, error) {
	if m.Address == "" || !strings.HasPrefix(m.Address, "/") {
		return nil, fmt.Errorf("%w: address %q must start with '/'", ErrMalformedMessage, m.Address)
	}
	if strings.ContainsRune(m.Address, 0) {
		return nil, fmt.Errorf("%w: address contains NUL", ErrMalformedMessage)
	}

	buf := make([]byte, 0, 64)
	buf = appendPaddedString(buf, m.Address)

	tags := make([]byte, 0, len(m.Args)+1)
	tags = append(tags, ',')
	for _, a := range m.Args {
		tags = append(tags, a.oscTypeTag())
	}
	buf = appendPaddedString(buf, string(tags))

	for _, a := range m.Args {
		switch v := a.(type) {
		case Int32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(v))
		case Float32:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		case String:
			if strings.ContainsRune(string(v), 0) {
				return nil, fmt.Errorf("%w: string argument contains NUL", ErrMalformedMessage)
			}
			buf = appendPaddedString(buf, string(v))
		default:
			return nil, fmt.Errorf("%w: unsupported argument type %T", ErrMalformedMessage, a)
		}
	}

	return buf, nil
}

// DecodeMessage parses a raw datagram into a Message.
//
// A missing type tag string (some devices omit it on zero-argument replies)
// is tolerated and decodes as a message with no arguments.
func DecodeMessage(b []byte) (Message, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return Message{}, fmt.Errorf("%w: length %d not a positive multiple of 4", ErrMalformedMessage, len(b))
	}

	addr, rest, err := readPaddedString(b)
	if err != nil {
		return Message{}, fmt.Errorf("%w: address: %v", ErrMalformedMessage, err)
	}
	if !strings.HasPrefix(addr, "/") {
		return Message{}, fmt.Errorf("%w: address %q must start with '/'", ErrMalformedMessage, addr)
	}

	msg := Message{Address: addr}
	if len(rest) == 0 {
		return msg, nil
	}

	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return Message{}, fmt.Errorf("%w: type tags: %v", ErrMalformedMessage, err)
	}
	if !strings.HasPrefix(tags, ",") {
		return Message{}, fmt.Errorf("%w: type tag string %q must start with ','", ErrMalformedMessage, tags)
	}

	for _, tag := range tags[1:] {
		switch tag {
		case 'i':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("%w: truncated int32 argument", ErrMalformedMessage)
			}
			msg.Args = append(msg.Args, Int32(int32(binary.BigEndian.Uint32(rest))))
			rest = rest[4:]
		case 'f':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("%w: truncated float32 argument", ErrMalformedMessage)
			}
			msg.Args = append(msg.Args, Float32(math.Float32frombits(binary.BigEndian.Uint32(rest))))
			rest = rest[4:]
		case 's':
			var s string
			s, rest, err = readPaddedString(rest)
			if err != nil {
				return Message{}, fmt.Errorf("%w: string argument: %v", ErrMalformedMessage, err)
			}
			msg.Args = append(msg.Args, String(s))
		default:
			return Message{}, fmt.Errorf("%w: unsupported type tag %q", ErrMalformedMessage, tag)
		}
	}

	if len(rest) != 0 {
		return Message{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedMessage, len(rest))
	}

	return msg, nil
}

// appendPaddedString appends s, a NUL terminator, and padding to the next
// 4-byte boundary.
func appendPaddedString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	pad := 4 - len(s)%4 // at least one NUL terminator
	for i := 0; i < pad; i++ {
		buf = append(buf, 0)
	}
	return buf
}

// readPaddedString consumes one NUL-padded string and returns the remainder.
func readPaddedString(b []byte) (string, []byte, error) {
	nul := -1
	for i, c := range b {
		if c == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", nil, errors.New("unterminated string")
	}
	end := nul + (4 - nul%4)
	if end > len(b) {
		return "", nil, errors.New("string padding exceeds buffer")
	}
	// Padding must be NUL: anything else is garbage, not slack.
	for _, c := range b[nul:end] {
		if c != 0 {
			return "", nil, errors.New("non-NUL padding")
		}
	}
	return string(b[:nul]), b[end:], nil
}
