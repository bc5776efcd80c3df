package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// ============================================================================
// Engine loop
// ============================================================================
// The engine loop is the single owner of EngineState. It receives events from
// every source (buttons, link watcher, transport, IPC, websocket), emits Tick
// events on a fixed cadence, reduces them into (state, commands), and executes
// the commands, feeding observations back into the reducer.
//
// Explicit FIFO queues keep execution non-reentrant and preserve command
// ordering, which the action pipeline depends on.
// ============================================================================

// runEngine drives the reducer until ctx is canceled or the events channel
// closes.
func runEngine(
	ctx context.Context,
	events <-chan Event,
	fx *effects,
	reg *Registry,
	state *EngineState,
	cfg EngineConfig,
	tickHz int,
	hub *Hub,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("engine state is nil")
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()

	lastTick := time.Now()
	lastPublished := state.Rev

	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}
	enqueueCommands := func(cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		cmdQueue = append(cmdQueue, cmds...)
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(reg, state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			enqueueCommands(rr.Commands)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			fx.run(cmd, func(obs Event) {
				enqueueEvent(obs)
			})

			// Observations are reduced promptly so follow-up commands
			// stay in order.
			flushEvents()
		}
	}

	publish := func() {
		if hub == nil || state.Rev == lastPublished {
			return
		}
		lastPublished = state.Rev
		now := time.Now().UTC()
		payload, err := json.Marshal(envelope{
			Type: "state",
			Ts:   &now,
			Data: state.snapshot(reg),
		})
		if err != nil {
			logger.Error("marshal state snapshot", "error", err)
			return
		}
		hub.BroadcastBytes(payload)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("engine stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("engine stopping (events channel closed)")
				return
			}
			enqueueEvent(TimedEvent{Event: ev, At: time.Now()})
			flushEvents()
			flushCommands()
			publish()

		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			enqueueEvent(Tick{Now: now, Dt: dt})
			flushEvents()
			flushCommands()
			publish()
		}
	}
}
