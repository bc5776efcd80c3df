package main

import "time"

// LinkState tracks where we are in the connect/subscribe lifecycle.
type LinkState int

const (
	// LinkDisconnected means the console is unreachable. Nothing is sent,
	// every LED is held physically off.
	LinkDisconnected LinkState = iota

	// LinkConnectedIdle means the console is reachable but we have not yet
	// subscribed for unsolicited updates (one-way mode parks here).
	LinkConnectedIdle

	// LinkSyncing means the subscription is live and being renewed.
	LinkSyncing
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkConnectedIdle:
		return "connected_idle"
	case LinkSyncing:
		return "syncing"
	}
	return "unknown"
}

// buttonHold is the per-pin debounce/classification state. A hold is Pending
// until it is classified as either a press (released early) or a long press
// (held past the threshold); each hold fires at most one action.
type buttonHold struct {
	Pressed   bool
	Pending   bool
	PressedAt time.Time
}

// WidgetState is the mutable runtime state for one registry slot. Indexes
// parallel Registry.Widgets().
type WidgetState struct {
	// On is the toggle state. In two-way mode it is confirmed by the
	// console echo; in one-way mode it is the optimistic local value.
	On bool

	// FaderValue is the last level observed at the widget's address.
	FaderValue float64
	FaderKnown bool

	// SnippetTag/SnippetIndex are the last snippet load observed.
	SnippetTag   string
	SnippetIndex int
	SnippetKnown bool
}

// Stats counts dropped and failed traffic for the snapshot surface.
type Stats struct {
	Malformed    uint64 `json:"malformed"`
	Unmatched    uint64 `json:"unmatched"`
	SendFailures uint64 `json:"send_failures"`
}

// EngineState is the complete reducer state. It is owned by the engine
// goroutine; everything else sees it through snapshots.
type EngineState struct {
	Link   LinkState
	TwoWay bool

	// RefreshPending/RefreshAfter implement the settle-delayed refresh pass
	// that runs once after each subscribe.
	RefreshPending bool
	RefreshAfter   time.Time

	// LastRenewAt is when the subscription was last sent, for renewal.
	LastRenewAt time.Time

	Buttons map[int]*buttonHold
	Widgets []WidgetState

	Stats Stats

	// Rev increments on every externally observable state change, so the
	// engine loop knows when to publish a fresh snapshot.
	Rev uint64
}

// NewEngineState builds the initial state for a registry: disconnected,
// two-way mode on, all toggles off, nothing known.
func NewEngineState(reg *Registry) *EngineState {
	s := &EngineState{
		Link:    LinkDisconnected,
		TwoWay:  true,
		Buttons: make(map[int]*buttonHold),
		Widgets: make([]WidgetState, len(reg.Widgets())),
	}
	for _, pin := range reg.ButtonPins() {
		s.Buttons[pin] = &buttonHold{}
	}
	return s
}

// WidgetSnapshot is the wire form of one widget's state.
type WidgetSnapshot struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Kind    string `json:"kind"`

	On bool `json:"on"`

	FaderValue float64 `json:"fader_value,omitempty"`
	FaderKnown bool    `json:"fader_known,omitempty"`

	SnippetTag   string `json:"snippet_tag,omitempty"`
	SnippetIndex int    `json:"snippet_index,omitempty"`
	SnippetKnown bool   `json:"snippet_known,omitempty"`
}

// StateSnapshot is a coherent copy of the engine state for the websocket and
// snapshot surfaces.
type StateSnapshot struct {
	Link    string           `json:"link"`
	TwoWay  bool             `json:"two_way"`
	Widgets []WidgetSnapshot `json:"widgets"`
	Stats   Stats            `json:"stats"`
	Rev     uint64           `json:"rev"`
}

// snapshot copies the externally visible state. Registry metadata is folded
// in so consumers never need the config.
func (s *EngineState) snapshot(reg *Registry) StateSnapshot {
	widgets := reg.Widgets()
	snap := StateSnapshot{
		Link:    s.Link.String(),
		TwoWay:  s.TwoWay,
		Widgets: make([]WidgetSnapshot, len(widgets)),
		Stats:   s.Stats,
		Rev:     s.Rev,
	}
	for i, w := range widgets {
		ws := s.Widgets[i]
		snap.Widgets[i] = WidgetSnapshot{
			Name:         w.Name,
			Address:      w.Address,
			Kind:         w.Kind.String(),
			On:           ws.On,
			FaderValue:   ws.FaderValue,
			FaderKnown:   ws.FaderKnown,
			SnippetTag:   ws.SnippetTag,
			SnippetIndex: ws.SnippetIndex,
			SnippetKnown: ws.SnippetKnown,
		}
	}
	return snap
}
