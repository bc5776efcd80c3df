package main

import "time"

// ============================================================================
// Reducer
// ============================================================================
// Reduce is the single pure state transition. It receives an event and the
// current state and returns the next state plus the side effects to run, in
// order. It never does IO, never reads the clock, and never blocks, so every
// behavior in this file is testable with plain values.
// ============================================================================

// EngineConfig are the timing knobs the reducer operates under.
type EngineConfig struct {
	// LongPress is the hold duration that classifies a long press.
	LongPress time.Duration

	// RenewInterval is how often the subscription is re-sent. It must be
	// shorter than the console's subscription timeout.
	RenewInterval time.Duration

	// SettleDelay is how long to wait after subscribing before running the
	// refresh pass, so the console has accepted the subscription.
	SettleDelay time.Duration

	// SubscribeAddress is the console's remote-subscription address.
	SubscribeAddress string

	// FlashTwoWay/FlashOneWay are the acknowledgement flash durations.
	FlashTwoWay time.Duration
	FlashOneWay time.Duration
}

// DefaultEngineConfig returns the stock timings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LongPress:        defaultLongPressMS * time.Millisecond,
		RenewInterval:    defaultRenewMS * time.Millisecond,
		SettleDelay:      defaultSettleMS * time.Millisecond,
		SubscribeAddress: defaultSubscribeAddress,
		FlashTwoWay:      defaultFlashTwoWayMS * time.Millisecond,
		FlashOneWay:      defaultFlashOneWayMS * time.Millisecond,
	}
}

// ReduceResult is the outcome of a single reduction step.
type ReduceResult struct {
	State    *EngineState
	Commands []Command
}

// Reduce applies one event to the state.
func Reduce(reg *Registry, s *EngineState, e Event, cfg EngineConfig) ReduceResult {
	var at time.Time
	if te, ok := e.(TimedEvent); ok {
		at = te.At
		e = te.Event
	}

	var cmds []Command

	switch e := e.(type) {
	case Tick:
		cmds = reduceTick(reg, s, e.Now, cfg)

	case ButtonDown:
		if hold, ok := s.Buttons[e.Pin]; ok && !hold.Pressed {
			hold.Pressed = true
			hold.Pending = true
			hold.PressedAt = at
		}

	case ButtonUp:
		if hold, ok := s.Buttons[e.Pin]; ok && hold.Pressed {
			hold.Pressed = false
			if hold.Pending && at.Sub(hold.PressedAt) < cfg.LongPress {
				hold.Pending = false
				cmds = append(cmds, fireAction(reg, s, e.Pin, TriggerPress, cfg)...)
			}
			hold.Pending = false
		}

	case ModeSwitchChanged:
		if e.TwoWay != s.TwoWay {
			s.TwoWay = e.TwoWay
			s.Rev++
			if e.TwoWay {
				if s.Link != LinkDisconnected {
					// Re-entering two-way mode: local state may have
					// drifted, so schedule a fresh refresh pass.
					s.RefreshPending = true
					if s.Link == LinkSyncing {
						s.RefreshAfter = at.Add(cfg.SettleDelay)
					}
				}
			} else {
				// Confirmation LEDs stop meaning anything without
				// console echoes, so blank them all.
				for _, w := range reg.Widgets() {
					cmds = append(cmds, CmdSetLED{Pin: w.LEDPin, On: false})
				}
			}
		}

	case LinkUp:
		if s.Link == LinkDisconnected {
			s.Link = LinkConnectedIdle
			s.RefreshPending = true
			s.Rev++
			cmds = append(cmds, CmdOpenTransport{})
		}

	case LinkDown:
		if s.Link != LinkDisconnected {
			s.Link = LinkDisconnected
			s.RefreshPending = false
			s.Rev++
			cmds = append(cmds, CmdCloseTransport{})
			// Park every LED physically off regardless of polarity.
			for _, w := range reg.Widgets() {
				cmds = append(cmds, CmdSetLED{Pin: w.LEDPin, On: false})
			}
		}

	case InboundMessage:
		cmds = reduceInbound(reg, s, e.Msg, cfg)

	case MalformedDatagram:
		s.Stats.Malformed++
		s.Rev++

	case SendFailed:
		s.Stats.SendFailures++
		s.Rev++

	case RequestStateSnapshot:
		cmds = append(cmds, CmdPublishSnapshot{Snapshot: s.snapshot(reg), Reply: e.Reply})
	}

	return ReduceResult{State: s, Commands: cmds}
}

// reduceTick advances time-driven behavior: long-press classification and the
// subscribe/renew/refresh schedule.
func reduceTick(reg *Registry, s *EngineState, now time.Time, cfg EngineConfig) []Command {
	var cmds []Command

	for _, pin := range reg.ButtonPins() {
		hold := s.Buttons[pin]
		if hold.Pressed && hold.Pending && now.Sub(hold.PressedAt) >= cfg.LongPress {
			// Fires at the threshold, not on release.
			hold.Pending = false
			cmds = append(cmds, fireAction(reg, s, pin, TriggerLongPress, cfg)...)
		}
	}

	switch s.Link {
	case LinkConnectedIdle:
		if s.TwoWay {
			s.Link = LinkSyncing
			s.LastRenewAt = now
			s.RefreshAfter = now.Add(cfg.SettleDelay)
			s.Rev++
			cmds = append(cmds, CmdSendOSC{Msg: Message{Address: cfg.SubscribeAddress}})
		}

	case LinkSyncing:
		if !s.TwoWay {
			// Let the subscription lapse; the transport stays open so
			// flipping back is cheap.
			s.Link = LinkConnectedIdle
			s.Rev++
			break
		}
		if now.Sub(s.LastRenewAt) >= cfg.RenewInterval {
			s.LastRenewAt = now
			cmds = append(cmds, CmdSendOSC{Msg: Message{Address: cfg.SubscribeAddress}})
		}
		if s.RefreshPending && !now.Before(s.RefreshAfter) {
			s.RefreshPending = false
			for _, w := range reg.Widgets() {
				if w.Kind == CapToggle {
					cmds = append(cmds, CmdQueryAddress{Address: w.Address})
				}
			}
		}
	}

	return cmds
}

// fireAction runs every widget bound to pin with a matching trigger. Per
// widget the order is fixed: console send, echo-request query (two-way,
// toggles and faders only), SysEx mirror, local flash (one-way only).
// Only the network legs depend on the link: while disconnected the toggle
// still flips, the SysEx mirror still goes out on the serial side, and the
// one-way flash still acknowledges the press.
func fireAction(reg *Registry, s *EngineState, pin int, trigger Trigger, cfg EngineConfig) []Command {
	connected := s.Link != LinkDisconnected

	var cmds []Command
	for i, w := range reg.Widgets() {
		if w.ButtonPin != pin || w.Trigger != trigger {
			continue
		}

		var msg Message
		var payload string
		wantQuery := false

		switch w.Kind {
		case CapToggle:
			next := !s.Widgets[i].On
			s.Widgets[i].On = next
			s.Rev++
			v := Int32(0)
			if next {
				v = 1
			}
			msg = Message{Address: w.Address, Args: []Arg{v}}
			payload = toggleText(next)
			wantQuery = true

		case CapFader:
			msg = Message{Address: w.Address, Args: []Arg{Float32(w.FaderLevel)}}
			payload = faderText(w.FaderLevel)
			wantQuery = true

		case CapSnippet:
			var args []Arg
			if w.SnippetTag != "" {
				args = append(args, String(w.SnippetTag))
			}
			if w.SnippetIndex >= 0 {
				args = append(args, Int32(w.SnippetIndex))
			}
			msg = Message{Address: w.Address, Args: args}
			payload = w.SnippetTag
		}

		if connected {
			cmds = append(cmds, CmdSendOSC{Msg: msg})
			if s.TwoWay && wantQuery {
				cmds = append(cmds, CmdQueryAddress{Address: w.Address})
			}
		}
		cmds = append(cmds, CmdSendSysEx{Address: w.Address, Payload: payload})
		if !s.TwoWay {
			cmds = append(cmds, CmdFlashLED{Pin: w.LEDPin, Duration: cfg.FlashOneWay})
		}
	}
	return cmds
}

// reduceInbound applies a console message to every widget bound to its
// address. Argument type decides the interpretation: a leading int drives
// toggle state and the LED, a leading float records a fader level, a leading
// string records a snippet load. Anything else is ignored.
func reduceInbound(reg *Registry, s *EngineState, msg Message, cfg EngineConfig) []Command {
	if !s.TwoWay || s.Link == LinkDisconnected {
		return nil
	}

	var cmds []Command
	matched := false

	for i, w := range reg.Widgets() {
		if w.Address != msg.Address {
			continue
		}
		matched = true

		if len(msg.Args) == 0 {
			continue
		}

		switch v := msg.Args[0].(type) {
		case Int32:
			if w.Kind != CapToggle {
				continue
			}
			on := v > 0
			if s.Widgets[i].On != on {
				s.Widgets[i].On = on
				s.Rev++
			}
			cmds = append(cmds, CmdSetLED{Pin: w.LEDPin, On: w.ledLevel(on)})

		case Float32:
			s.Widgets[i].FaderValue = float64(v)
			s.Widgets[i].FaderKnown = true
			s.Rev++
			cmds = append(cmds, CmdFlashLED{Pin: w.LEDPin, Duration: cfg.FlashTwoWay})

		case String:
			s.Widgets[i].SnippetTag = string(v)
			s.Widgets[i].SnippetKnown = true
			if len(msg.Args) > 1 {
				if idx, ok := msg.Args[1].(Int32); ok {
					s.Widgets[i].SnippetIndex = int(idx)
				}
			}
			s.Rev++
			cmds = append(cmds, CmdFlashLED{Pin: w.LEDPin, Duration: cfg.FlashTwoWay})
		}
	}

	if !matched {
		s.Stats.Unmatched++
		s.Rev++
	}
	return cmds
}
