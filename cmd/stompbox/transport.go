package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// consoleTransport is the UDP leg to the console. It binds a fixed local
// port so the console's replies and unsolicited updates land on the socket
// we sent from, and pushes decoded datagrams into the engine's event channel.
//
// Open/Close follow the link watcher: the socket only exists while the
// network path to the console is believed up.
type consoleTransport struct {
	peer       *net.UDPAddr
	listenPort int
	events     chan<- Event
	logger     *slog.Logger

	mu   sync.Mutex
	conn *net.UDPConn
	gen  int
}

var errTransportClosed = errors.New("transport closed")

func newConsoleTransport(host string, port, listenPort int, events chan<- Event, logger *slog.Logger) (*consoleTransport, error) {
	peer, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve console address: %w", err)
	}
	return &consoleTransport{
		peer:       peer,
		listenPort: listenPort,
		events:     events,
		logger:     logger,
	}, nil
}

// Open binds the local port and starts the receive loop. Opening an already
// open transport is a no-op.
func (t *consoleTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: t.listenPort})
	if err != nil {
		return fmt.Errorf("bind udp port %d: %w", t.listenPort, err)
	}
	t.conn = conn
	t.gen++

	t.logger.Info("transport open", "local", conn.LocalAddr().String(), "console", t.peer.String())
	go t.readLoop(conn, t.gen)
	return nil
}

// Close tears the socket down; the receive loop exits on the read error.
func (t *consoleTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return
	}
	t.logger.Info("transport closed")
	t.conn.Close()
	t.conn = nil
}

// Send writes one datagram to the console.
func (t *consoleTransport) Send(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return errTransportClosed
	}
	if _, err := t.conn.WriteToUDP(b, t.peer); err != nil {
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

func (t *consoleTransport) readLoop(conn *net.UDPConn, gen int) {
	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			t.mu.Lock()
			stale := gen != t.gen || t.conn == nil
			t.mu.Unlock()
			if !stale {
				t.logger.Error("udp read failed", "error", err)
			}
			return
		}

		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			t.logger.Warn("dropping malformed datagram", "size", n, "error", err)
			t.events <- MalformedDatagram{Size: n}
			continue
		}
		t.events <- InboundMessage{Msg: msg}
	}
}
