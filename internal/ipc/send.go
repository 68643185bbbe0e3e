package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"syscall"
	"time"
)

const dialTimeout = time.Second

// Reason says why a message could not be delivered.
type Reason int

const (
	ReasonOther Reason = iota
	// ReasonAbsent means nothing exists at the socket path.
	ReasonAbsent
	// ReasonRefused means the path exists but no process is accepting on it.
	ReasonRefused
)

// DeliveryError is returned by Send when the preview cannot be reached.
// Its message tells the user how to start the receiver.
type DeliveryError struct {
	SocketPath string
	Reason     Reason
	Err        error
}

func (e *DeliveryError) Error() string {
	switch e.Reason {
	case ReasonAbsent:
		return fmt.Sprintf("GUI preview not running at %s. Start it with: notes preview --socket-path %s", e.SocketPath, e.SocketPath)
	case ReasonRefused:
		return fmt.Sprintf("Could not connect to GUI preview at %s", e.SocketPath)
	default:
		return fmt.Sprintf("Could not send to GUI preview at %s: %v", e.SocketPath, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Send connects, writes msg, and closes. There is no retry and no queue.
func Send(socketPath string, msg Message) error {
	if _, err := os.Stat(socketPath); errors.Is(err, fs.ErrNotExist) {
		return &DeliveryError{SocketPath: socketPath, Reason: ReasonAbsent, Err: err}
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return &DeliveryError{SocketPath: socketPath, Err: err}
	}

	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		reason := ReasonOther
		switch {
		case errors.Is(err, syscall.ECONNREFUSED):
			reason = ReasonRefused
		case errors.Is(err, syscall.ENOENT):
			reason = ReasonAbsent
		}
		return &DeliveryError{SocketPath: socketPath, Reason: reason, Err: err}
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	if _, err := conn.Write(b); err != nil {
		return &DeliveryError{SocketPath: socketPath, Err: err}
	}
	return nil
}
