package main

// ============================================================================
// Widget registry
// ============================================================================
// A Widget is one controllable binding: a button pin, an LED pin, the console
// address it drives, and the kind of value that lives at that address. The
// registry is fixed at startup from configuration; iteration order is the
// configuration order and stable for the process lifetime.
//
// Widgets carry no runtime state. State (toggle on/off, last known fader
// value, last loaded snippet) lives in EngineState and is mutated only by the
// engine goroutine, so other components read it via snapshots.
// ============================================================================

// Capability is the widget variant, chosen once at configuration time.
type Capability int

const (
	CapToggle Capability = iota
	CapFader
	CapSnippet
)

func (c Capability) String() string {
	switch c {
	case CapToggle:
		return "toggle"
	case CapFader:
		return "fader"
	case CapSnippet:
		return "snippet"
	}
	return "unknown"
}

// Trigger selects which button classification fires a widget.
type Trigger int

const (
	TriggerPress Trigger = iota
	TriggerLongPress
)

func (t Trigger) String() string {
	if t == TriggerLongPress {
		return "long_press"
	}
	return "press"
}

// Widget is one configured binding. Exactly one button pin and one LED pin
// per widget; several widgets may share a button pin with different triggers,
// and several may share an address.
type Widget struct {
	Name      string
	ButtonPin int
	LEDPin    int
	Trigger   Trigger

	// ReverseLED inverts the LED output relative to the logical state
	// (e.g. a channel-on address whose LED should light when muted).
	ReverseLED bool

	Address string
	Kind    Capability

	// FaderLevel is the configured 0.0-1.0 level sent by a CapFader widget.
	FaderLevel float64

	// SnippetTag and SnippetIndex are the optional payloads of a CapSnippet
	// widget; an empty tag or a negative index is omitted from the message.
	SnippetTag   string
	SnippetIndex int
}

// ledLevel applies the polarity rule: led_on = reverse ? !state : state.
func (w Widget) ledLevel(on bool) bool {
	if w.ReverseLED {
		return !on
	}
	return on
}

// Registry is the fixed, ordered widget table.
type Registry struct {
	widgets    []Widget
	buttonPins []int
}

// NewRegistry builds a registry from the configured widget list.
func NewRegistry(widgets []Widget) *Registry {
	r := &Registry{widgets: widgets}

	seen := make(map[int]bool, len(widgets))
	for _, w := range widgets {
		if !seen[w.ButtonPin] {
			seen[w.ButtonPin] = true
			r.buttonPins = append(r.buttonPins, w.ButtonPin)
		}
	}
	return r
}

// Widgets returns the table in configuration order. Callers must not mutate it.
func (r *Registry) Widgets() []Widget { return r.widgets }

// ButtonPins returns the distinct button pins in first-seen configuration
// order, so per-pin processing stays deterministic.
func (r *Registry) ButtonPins() []int { return r.buttonPins }
