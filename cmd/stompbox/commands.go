package main

import (
	"fmt"
	"time"
)

// ==============================
// Commands (side effects)
// ==============================
// Commands are the side effects requested by the reducer and executed by the
// effects layer, in emission order. Per-action ordering matters: the console
// send comes first, then the optional echo-request query, then the SysEx
// mirror. The engine's FIFO command queue preserves that order.
// ==============================

// Command represents an external side effect to be executed by the engine loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdSendOSC sends an encoded OSC message to the console.
type CmdSendOSC struct {
	Msg Message
}

func (CmdSendOSC) commandMarker() {}
func (c CmdSendOSC) String() string {
	return fmt.Sprintf("CmdSendOSC(address=%s args=%d)", c.Msg.Address, len(c.Msg.Args))
}

// CmdQueryAddress sends a bare, argument-less message for an address.
// The console replies with the current value, which is how we obtain a
// confirmation echo for commands the console does not echo on its own.
type CmdQueryAddress struct {
	Address string
}

func (CmdQueryAddress) commandMarker() {}
func (c CmdQueryAddress) String() string {
	return fmt.Sprintf("CmdQueryAddress(address=%s)", c.Address)
}

// CmdSendSysEx mirrors a console command on the MIDI port.
type CmdSendSysEx struct {
	Address string
	Payload string
}

func (CmdSendSysEx) commandMarker() {}
func (c CmdSendSysEx) String() string {
	return fmt.Sprintf("CmdSendSysEx(address=%s payload=%q)", c.Address, c.Payload)
}

// CmdSetLED sets the lamp state for a pin. The widget's reverse rule is
// already applied by the reducer; wiring polarity belongs to the LED sink.
type CmdSetLED struct {
	Pin int
	On  bool
}

func (CmdSetLED) commandMarker() {}
func (c CmdSetLED) String() string {
	return fmt.Sprintf("CmdSetLED(pin=%d on=%v)", c.Pin, c.On)
}

// CmdFlashLED pulses an LED for a bounded duration as a visual
// acknowledgement. The flash is a self-terminating one-shot.
type CmdFlashLED struct {
	Pin      int
	Duration time.Duration
}

func (CmdFlashLED) commandMarker() {}
func (c CmdFlashLED) String() string {
	return fmt.Sprintf("CmdFlashLED(pin=%d dur=%s)", c.Pin, c.Duration)
}

// CmdOpenTransport binds the local receive port and starts the inbound loop.
type CmdOpenTransport struct{}

func (CmdOpenTransport) commandMarker() {}
func (CmdOpenTransport) String() string { return "CmdOpenTransport()" }

// CmdCloseTransport tears the receive port down on a connectivity loss.
type CmdCloseTransport struct{}

func (CmdCloseTransport) commandMarker() {}
func (CmdCloseTransport) String() string { return "CmdCloseTransport()" }

// CmdPublishSnapshot delivers a reducer-produced snapshot to the requester.
// Keeping the channel send in the effects layer keeps the reducer pure.
type CmdPublishSnapshot struct {
	Snapshot StateSnapshot
	Reply    chan StateSnapshot
}

func (CmdPublishSnapshot) commandMarker() {}
func (CmdPublishSnapshot) String() string { return "CmdPublishSnapshot()" }
