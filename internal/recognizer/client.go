package recognizer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSocketPath returns the default recognizer daemon socket path.
func DefaultSocketPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".meetingmind", "recognizer.sock")
}

// Available reports whether the recognizer daemon socket exists. A missing
// socket means speech-to-text is not supported on this setup.
func Available(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}

// Client communicates with the recognizer daemon over a Unix socket.
// Writes and reads may happen from different goroutines; writes are
// serialized, reads belong to a single consumer.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	wmu     sync.Mutex
}

// Connect dials the recognizer daemon socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to recognizer: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// send writes one command line. The daemon answers on the event stream.
func (c *Client) send(cmd Command) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Start asks the daemon to begin recognizing speech in the given locale.
// It is also how a session restarts recognition after an "end" event.
func (c *Client) Start(locale string) error {
	return c.send(Command{Cmd: "start", Locale: locale})
}

// Stop asks the daemon to stop recognizing. The daemon emits a final "end"
// event once the engine has shut down.
func (c *Client) Stop() error {
	return c.send(Command{Cmd: "stop"})
}

// ReadEvent reads the next NDJSON event line. Blocks until data arrives.
func (c *Client) ReadEvent() (Event, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		return Event{}, fmt.Errorf("connection closed")
	}

	var ev Event
	if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return ev, nil
}
