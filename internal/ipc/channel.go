package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrConnectionClosed reports that the peer went away. The supervisor
// treats it as the crash-detection signal, so it is an expected error, not
// a fault in the channel itself.
var ErrConnectionClosed = errors.New("ipc: connection closed")

const (
	readChunkSize = 4096
	pingTimeout   = time.Second

	// pollWindow is Recv's read deadline. It must lie in the future: a
	// read against an expired deadline fails without delivering data the
	// kernel already buffered.
	pollWindow = time.Millisecond
)

// Channel is one app's protocol connection. It is owned by the control
// loop and must not be shared across goroutines.
type Channel struct {
	conn       net.Conn
	pendingOut []Message
	readBuf    bytes.Buffer

	// readTimeout bounds each RecvBlocking call; zero means wait
	// indefinitely. Applied per call so the polling deadline Recv leaves
	// on the conn never bleeds into a blocking read.
	readTimeout time.Duration
}

// Dial connects to an app socket. Used by hosted apps and by tests.
func Dial(path string) (*Channel, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial %s: %w", path, err)
	}
	return NewChannel(conn), nil
}

// NewChannel wraps an accepted or dialed connection.
func NewChannel(conn net.Conn) *Channel {
	return &Channel{conn: conn}
}

func (c *Channel) Close() error {
	return c.conn.Close()
}

// Send writes one framed message synchronously.
func (c *Channel) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("ipc: encode %s: %w", msg.Type, err)
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("ipc: send %s: %w", msg.Type, err)
	}
	return nil
}

// Queue defers a message until the next Flush, letting the control loop
// batch several envelopes into one writing turn.
func (c *Channel) Queue(msg Message) {
	c.pendingOut = append(c.pendingOut, msg)
}

func (c *Channel) Flush() error {
	for len(c.pendingOut) > 0 {
		msg := c.pendingOut[0]
		c.pendingOut = c.pendingOut[1:]
		if err := c.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// Recv polls for one message, waiting at most pollWindow for data. It
// extracts at most one complete message per call; further buffered
// messages are served by later calls in arrival order. Returns (nil, nil)
// when no complete message is available and ErrConnectionClosed once the
// peer has hung up.
func (c *Channel) Recv() (*Message, error) {
	if msg, err := c.popMessage(); msg != nil || err != nil {
		return msg, err
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(pollWindow)); err != nil {
		return nil, fmt.Errorf("ipc: set deadline: %w", err)
	}
	buf := make([]byte, readChunkSize)
	n, err := c.conn.Read(buf)
	if n > 0 {
		c.readBuf.Write(buf[:n])
	}
	if err != nil {
		if isTimeout(err) {
			return c.popMessage()
		}
		if errors.Is(err, io.EOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("ipc: read: %w", err)
	}
	return c.popMessage()
}

// RecvBlocking reads until one full message arrives. The stale polling
// deadline left by Recv is cleared first; a timeout set with
// SetReadTimeout bounds the wait instead. Non-blocking behavior is
// restored by the next Recv, which sets its own deadline.
func (c *Channel) RecvBlocking() (*Message, error) {
	if msg, err := c.popMessage(); msg != nil || err != nil {
		return msg, err
	}

	deadline := time.Time{}
	if c.readTimeout > 0 {
		deadline = time.Now().Add(c.readTimeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("ipc: set deadline: %w", err)
	}

	buf := make([]byte, readChunkSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.readBuf.Write(buf[:n])
			if msg, perr := c.popMessage(); msg != nil || perr != nil {
				return msg, perr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrConnectionClosed
			}
			return nil, fmt.Errorf("ipc: read: %w", err)
		}
	}
}

// SetReadTimeout bounds each subsequent RecvBlocking call. Zero clears
// the bound.
func (c *Channel) SetReadTimeout(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	c.readTimeout = d
	return nil
}

// Ping performs the blocking liveness probe: true only when the peer
// answers Pong within one second. Timeouts and wrong replies are a failed
// probe, not an error.
func (c *Channel) Ping() bool {
	if err := c.Send(Ping()); err != nil {
		return false
	}
	prev := c.readTimeout
	c.readTimeout = pingTimeout
	defer func() { c.readTimeout = prev }()
	msg, err := c.RecvBlocking()
	if err != nil || msg == nil {
		return false
	}
	return msg.Type == TypePong
}

// popMessage extracts the first complete frame from the read buffer.
func (c *Channel) popMessage() (*Message, error) {
	raw := c.readBuf.Bytes()
	idx := bytes.IndexByte(raw, '\n')
	if idx < 0 {
		return nil, nil
	}
	line := make([]byte, idx)
	copy(line, raw[:idx])
	c.readBuf.Next(idx + 1)

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("ipc: decode frame: %w", err)
	}
	return &msg, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SocketPath returns the per-app socket location:
// $XDG_RUNTIME_DIR/tui-shell/app-<id>.sock, with /tmp as the fallback
// when the runtime dir is unset.
func SocketPath(appID uint64) string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = "/tmp"
	}
	return filepath.Join(runtimeDir, "tui-shell", fmt.Sprintf("app-%d.sock", appID))
}
