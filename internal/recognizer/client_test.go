package recognizer

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// startMockDaemon creates a Unix socket that accepts one connection, waits
// for a start command, and streams the given events.
func startMockDaemon(t *testing.T, events []Event) (string, func()) {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "test.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Wait for the start command before streaming.
		scanner := bufio.NewScanner(conn)
		if !scanner.Scan() {
			return
		}

		for _, ev := range events {
			data, _ := json.Marshal(ev)
			conn.Write(append(data, '\n'))
		}
	}()

	return sockPath, func() {
		ln.Close()
		os.Remove(sockPath)
	}
}

func TestClientStartAndReadEvents(t *testing.T) {
	events := []Event{
		{Event: "partial", Text: "hola"},
		{Event: "final", Text: "hola a todos"},
		{Event: "end"},
	}

	sockPath, cleanup := startMockDaemon(t, events)
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Start("es-ES"); err != nil {
		t.Fatalf("start: %v", err)
	}

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != "partial" || ev1.Text != "hola" {
		t.Errorf("event1 = %+v", ev1)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != "final" || ev2.Text != "hola a todos" {
		t.Errorf("event2 = %+v", ev2)
	}

	ev3, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 3: %v", err)
	}
	if ev3.Event != "end" {
		t.Errorf("event3 = %+v", ev3)
	}
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect("/nonexistent/path/recognizer.sock")
	if err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestAvailable(t *testing.T) {
	if Available(filepath.Join(t.TempDir(), "missing.sock")) {
		t.Error("Available = true for missing socket")
	}

	sockPath, cleanup := startMockDaemon(t, nil)
	defer cleanup()
	if !Available(sockPath) {
		t.Error("Available = false for existing socket")
	}
}

func TestCommandOmitsEmptyLocale(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: "stop"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, ok := raw["locale"]; ok {
		t.Error("stop command should omit locale")
	}
}

func TestEventBenign(t *testing.T) {
	cases := []struct {
		ev   Event
		want bool
	}{
		{Event{Event: "error", Code: "no-speech"}, true},
		{Event{Event: "error", Code: "audio-capture"}, true},
		{Event{Event: "error", Code: "not-allowed"}, false},
		{Event{Event: "final", Text: "x"}, false},
	}
	for _, c := range cases {
		if got := c.ev.Benign(); got != c.want {
			t.Errorf("Benign(%+v) = %v, want %v", c.ev, got, c.want)
		}
	}
}
