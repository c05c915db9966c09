package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Listener is the shell-side end of an app socket. The shell binds it
// before launching the app so the app can connect during startup.
type Listener struct {
	path string
	ln   *net.UnixListener
}

// Listen binds the app socket, replacing any stale socket file left over
// from a previous run.
func Listen(path string) (*Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ipc: socket dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ipc: remove stale socket: %w", err)
	}
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve %s: %w", path, err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}
	return &Listener{path: path, ln: ln}, nil
}

func (l *Listener) Path() string {
	return l.path
}

// Accept waits up to the given timeout for the app to connect. Zero means
// wait indefinitely.
func (l *Listener) Accept(timeout time.Duration) (*Channel, error) {
	if timeout > 0 {
		if err := l.ln.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("ipc: accept deadline: %w", err)
		}
		defer l.ln.SetDeadline(time.Time{})
	}
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("ipc: accept on %s: %w", l.path, err)
	}
	return NewChannel(conn), nil
}

// Close shuts the listener and removes the socket file.
func (l *Listener) Close() error {
	err := l.ln.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}
