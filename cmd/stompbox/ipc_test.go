package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestIPC_RoundTrip runs the socket server and injects an event through the
// client helper.
func TestIPC_RoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "stompbox.sock")
	events := make(chan Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runIPCServer(ctx, socketPath, events, slog.Default())
	}()

	waitUntil(t, time.Second, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, "ipc socket not created in time")

	if err := SendIPCEvent(socketPath, ButtonDown{Pin: 12}); err != nil {
		t.Fatalf("SendIPCEvent failed: %v", err)
	}

	select {
	case ev := <-events:
		down, ok := ev.(ButtonDown)
		if !ok || down.Pin != 12 {
			t.Fatalf("expected ButtonDown{12}, got %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for injected event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server exited with error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for server shutdown")
	}
}
