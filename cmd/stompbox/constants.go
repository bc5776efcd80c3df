package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	// gpio-keys overlays usually expose footswitches as BTN_0.. (0x100..)
	BTN_0 = 0x100
	BTN_1 = 0x101
	BTN_2 = 0x102
	BTN_3 = 0x103
	BTN_4 = 0x104
	BTN_5 = 0x105
	BTN_6 = 0x106
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Console protocol defaults
const (
	defaultConsolePort = 10023 // X32 remote control port (X-AIR uses 10024)
	defaultListenPort  = 8888  // local port for inbound datagrams (also the send source port)

	// The console drops a remote client from its update stream 10 s after the
	// last subscribe message, so the renewal period must stay well under that.
	defaultRenewMS  = 9000
	defaultSettleMS = 20 // let the subscription take effect before the refresh queries

	defaultSubscribeAddress = "/xremote"
)

// Engine timing defaults
const (
	defaultTickHz      = 50
	defaultLongPressMS = 3000
	defaultLinkPollMS  = 1000

	// Acknowledgement flash durations: longer in two-way mode so a remote
	// confirmation pulse is visible, shorter for the local fire-and-forget ack.
	defaultFlashTwoWayMS = 200
	defaultFlashOneWayMS = 100
)
