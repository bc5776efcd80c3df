package main

import (
	"log/slog"
	"time"
)

// effects executes reducer commands against the real world: the UDP
// transport, the MIDI port, and the LED pins. Failures are logged and fed
// back into the reducer as SendFailed events; they never stop the loop.
type effects struct {
	transport *consoleTransport
	midi      MIDISender
	leds      LEDSink
	logger    *slog.Logger
}

// run executes a single command. onEvent feeds observations back into the
// engine's event queue.
func (fx *effects) run(cmd Command, onEvent func(Event)) {
	switch c := cmd.(type) {
	case CmdSendOSC:
		fx.sendOSC(c.Msg, cmd, onEvent)

	case CmdQueryAddress:
		fx.sendOSC(Message{Address: c.Address}, cmd, onEvent)

	case CmdSendSysEx:
		if fx.midi == nil {
			return
		}
		frame, err := buildSysEx(c.Address, c.Payload)
		if err != nil {
			fx.logger.Warn("sysex frame rejected", "address", c.Address, "error", err)
			onEvent(SendFailed{Command: cmd, Err: err, At: time.Now()})
			return
		}
		if err := fx.midi.Send(frame); err != nil {
			fx.logger.Warn("midi send failed", "address", c.Address, "error", err)
			onEvent(SendFailed{Command: cmd, Err: err, At: time.Now()})
		}

	case CmdSetLED:
		if err := fx.leds.Set(c.Pin, c.On); err != nil {
			fx.logger.Warn("led write failed", "pin", c.Pin, "error", err)
		}

	case CmdFlashLED:
		// One-shot pulse; the goroutine self-terminates.
		go func() {
			if err := fx.leds.Set(c.Pin, true); err != nil {
				fx.logger.Warn("led write failed", "pin", c.Pin, "error", err)
				return
			}
			time.Sleep(c.Duration)
			if err := fx.leds.Set(c.Pin, false); err != nil {
				fx.logger.Warn("led write failed", "pin", c.Pin, "error", err)
			}
		}()

	case CmdOpenTransport:
		if err := fx.transport.Open(); err != nil {
			fx.logger.Error("transport open failed", "error", err)
			onEvent(SendFailed{Command: cmd, Err: err, At: time.Now()})
		}

	case CmdCloseTransport:
		fx.transport.Close()

	case CmdPublishSnapshot:
		select {
		case c.Reply <- c.Snapshot:
		default:
			fx.logger.Warn("snapshot requester gone, dropping")
		}

	default:
		fx.logger.Warn("unknown command", "command", cmd.String())
	}
}

func (fx *effects) sendOSC(msg Message, cmd Command, onEvent func(Event)) {
	b, err := msg.Encode()
	if err != nil {
		fx.logger.Warn("osc encode failed", "address", msg.Address, "error", err)
		onEvent(SendFailed{Command: cmd, Err: err, At: time.Now()})
		return
	}
	if err := fx.transport.Send(b); err != nil {
		fx.logger.Warn("osc send failed", "address", msg.Address, "error", err)
		onEvent(SendFailed{Command: cmd, Err: err, At: time.Now()})
	}
}
