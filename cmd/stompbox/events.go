package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Events
// ============================================================================
// Events are the only inputs to the reducer. They come from the button
// devices, the link watcher, the transport receive loop, the IPC socket, the
// state websocket, and the engine's own ticker. The engine loop timestamps
// external events by wrapping them in TimedEvent.
// ============================================================================

// Event is the marker interface for all reducer inputs.
type Event interface {
	eventMarker()
}

// Tick is emitted by the engine loop at a fixed cadence.
// Dt is the wall-clock delta in seconds between ticks.
type Tick struct {
	Now time.Time
	Dt  float64
}

func (Tick) eventMarker() {}

// TimedEvent wraps an external event with the time it was accepted,
// so the reducer never has to call time.Now itself.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// ButtonDown reports a physical button transition to pressed.
type ButtonDown struct {
	Pin int `json:"pin"`
}

func (ButtonDown) eventMarker() {}

// ButtonUp reports a physical button transition to released.
type ButtonUp struct {
	Pin int `json:"pin"`
}

func (ButtonUp) eventMarker() {}

// ModeSwitchChanged reports the operator mode switch: two-way mode listens
// for console confirmations and drives LEDs from them; one-way mode is
// fire-and-forget with a local acknowledgement flash.
type ModeSwitchChanged struct {
	TwoWay bool `json:"two_way"`
}

func (ModeSwitchChanged) eventMarker() {}

// LinkUp reports a connectivity-up edge from the link watcher.
type LinkUp struct{}

func (LinkUp) eventMarker() {}

// LinkDown reports a connectivity-down edge from the link watcher.
type LinkDown struct{}

func (LinkDown) eventMarker() {}

// InboundMessage is a decoded datagram from the console.
type InboundMessage struct {
	Msg Message
}

func (InboundMessage) eventMarker() {}

// MalformedDatagram reports an inbound datagram that failed to decode.
// The datagram is already dropped; the reducer only counts it.
type MalformedDatagram struct {
	Size int
}

func (MalformedDatagram) eventMarker() {}

// SendFailed is the observation fed back when executing a send command
// failed. The failed send is skipped, never retried synchronously; the next
// action or keep-alive tick retries naturally.
type SendFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (SendFailed) eventMarker() {}

// RequestStateSnapshot asks the reducer to publish a coherent snapshot on
// Reply. Used by the state websocket for its initial message, so snapshots
// always pass through the single-owner engine loop.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON envelopes (IPC surface)
// ============================================================================
// Only operator-facing events are accepted over IPC; transport observations
// and snapshot plumbing stay internal.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event.
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "button_down":
		var e ButtonDown
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ButtonDown: %w", err)
		}
		return e, nil

	case "button_up":
		var e ButtonUp
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ButtonUp: %w", err)
		}
		return e, nil

	case "mode_switch":
		var e ModeSwitchChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ModeSwitchChanged: %w", err)
		}
		return e, nil

	case "link_up":
		return LinkUp{}, nil

	case "link_down":
		return LinkDown{}, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator.
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case ButtonDown:
		env.Type = "button_down"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonDown: %w", err)
		}
		env.Data = data

	case ButtonUp:
		env.Type = "button_up"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonUp: %w", err)
		}
		env.Data = data

	case ModeSwitchChanged:
		env.Type = "mode_switch"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ModeSwitchChanged: %w", err)
		}
		env.Data = data

	case LinkUp:
		env.Type = "link_up"

	case LinkDown:
		env.Type = "link_down"

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}
