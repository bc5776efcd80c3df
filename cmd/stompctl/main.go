package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ============================================================================
// stompctl - Command-line IPC Client
// ============================================================================
// This tool sends events to the stompbox daemon via IPC, mainly to exercise a
// deployment without touching the footswitch hardware.
//
// Usage:
//   stompctl press 12
//   stompctl release 12
//   stompctl two-way off
//   stompctl link down
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/stompbox.sock)
// ============================================================================

// Event types (duplicated from the daemon package for a standalone binary)
type Event interface{}

type ButtonDown struct {
	Pin int `json:"pin"`
}

type ButtonUp struct {
	Pin int `json:"pin"`
}

type ModeSwitchChanged struct {
	TwoWay bool `json:"two_way"`
}

type LinkUp struct{}

type LinkDown struct{}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/stompbox.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var event Event

	switch args[0] {
	case "press":
		pin, err := parsePin(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		event = ButtonDown{Pin: pin}

	case "release":
		pin, err := parsePin(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		event = ButtonUp{Pin: pin}

	case "two-way":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			fmt.Fprintf(os.Stderr, "error: two-way requires on|off\n")
			os.Exit(1)
		}
		event = ModeSwitchChanged{TwoWay: args[1] == "on"}

	case "link":
		if len(args) < 2 || (args[1] != "up" && args[1] != "down") {
			fmt.Fprintf(os.Stderr, "error: link requires up|down\n")
			os.Exit(1)
		}
		if args[1] == "up" {
			event = LinkUp{}
		} else {
			event = LinkDown{}
		}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err := sendEvent(socketPath, event); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func parsePin(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a button pin number", args[0])
	}
	pin, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid pin number: %v", err)
	}
	return pin, nil
}

func sendEvent(socketPath string, event Event) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := marshalEvent(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Send event (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalEvent(event Event) ([]byte, error) {
	var env EventEnvelope

	switch e := event.(type) {
	case ButtonDown:
		env.Type = "button_down"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonDown: %w", err)
		}
		env.Data = data

	case ButtonUp:
		env.Type = "button_up"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ButtonUp: %w", err)
		}
		env.Data = data

	case ModeSwitchChanged:
		env.Type = "mode_switch"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ModeSwitchChanged: %w", err)
		}
		env.Data = data

	case LinkUp:
		env.Type = "link_up"

	case LinkDown:
		env.Type = "link_down"

	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `stompctl - Control the stompbox daemon via IPC

Usage:
  stompctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/stompbox.sock)

Commands:
  press <pin>         Simulate a button press on the given pin
  release <pin>       Simulate a button release on the given pin
  two-way on|off      Flip the two-way/one-way mode switch
  link up|down        Force a connectivity edge (testing only)
  help, -h, --help    Show this help message

Examples:
  stompctl press 12
  stompctl release 12
  stompctl two-way off
  stompctl -socket /var/run/stompbox.sock link down
`)
}
