package main

import (
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"
)

// openTestTransport binds an ephemeral local port and returns the transport
// plus the address a fake console can send to.
func openTestTransport(t *testing.T, events chan Event) (*consoleTransport, *net.UDPAddr) {
	t.Helper()

	tr, err := newConsoleTransport("127.0.0.1", 10023, 0, events, slog.Default())
	if err != nil {
		t.Fatalf("newConsoleTransport failed: %v", err)
	}
	if err := tr.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(tr.Close)

	tr.mu.Lock()
	addr := tr.conn.LocalAddr().(*net.UDPAddr)
	tr.mu.Unlock()
	return tr, addr
}

func TestTransport_InboundDecoded(t *testing.T) {
	events := make(chan Event, 4)
	_, addr := openTestTransport(t, events)

	console, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dial transport: %v", err)
	}
	defer console.Close()

	b, err := Message{Address: "/dca/5/on", Args: []Arg{Int32(1)}}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := console.Write(b); err != nil {
		t.Fatalf("write datagram: %v", err)
	}

	select {
	case ev := <-events:
		in, ok := ev.(InboundMessage)
		if !ok {
			t.Fatalf("expected InboundMessage, got %T", ev)
		}
		if in.Msg.Address != "/dca/5/on" {
			t.Errorf("address: got %q", in.Msg.Address)
		}
		if v, ok := in.Msg.Args[0].(Int32); !ok || v != 1 {
			t.Errorf("arg: got %#v", in.Msg.Args[0])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound event")
	}
}

func TestTransport_MalformedCounted(t *testing.T) {
	events := make(chan Event, 4)
	_, addr := openTestTransport(t, events)

	console, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dial transport: %v", err)
	}
	defer console.Close()

	if _, err := console.Write([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("write datagram: %v", err)
	}

	select {
	case ev := <-events:
		bad, ok := ev.(MalformedDatagram)
		if !ok {
			t.Fatalf("expected MalformedDatagram, got %T", ev)
		}
		if bad.Size != 3 {
			t.Errorf("size: got %d, want 3", bad.Size)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for malformed event")
	}
}

func TestTransport_SendAfterClose(t *testing.T) {
	events := make(chan Event, 4)
	tr, _ := openTestTransport(t, events)

	b, _ := Message{Address: "/xremote"}.Encode()
	if err := tr.Send(b); err != nil {
		t.Fatalf("send while open failed: %v", err)
	}

	tr.Close()
	if err := tr.Send(b); !errors.Is(err, errTransportClosed) {
		t.Errorf("expected errTransportClosed, got %v", err)
	}

	// Reopen works and gets a fresh socket.
	if err := tr.Open(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := tr.Send(b); err != nil {
		t.Errorf("send after reopen failed: %v", err)
	}
}
