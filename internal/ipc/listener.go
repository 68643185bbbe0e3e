package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxMessageBytes = 64 << 10
	readTimeout     = 2 * time.Second
)

// Listener accepts producer connections on a unix socket. Each connection is
// read on its own goroutine; decoded messages are handed to the consumer
// through Messages, which is the only state shared with the accept side.
type Listener struct {
	path string
	ln   net.Listener
	log  logrus.FieldLogger
	out  chan Message

	running   atomic.Bool
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Listen binds path, removing a stale socket file left by a previous run.
func Listen(path string, log logrus.FieldLogger) (*Listener, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	return &Listener{
		path:   path,
		ln:     ln,
		log:    log.WithFields(logrus.Fields{"component": "ipc", "socket": path}),
		out:    make(chan Message, 16),
		stopCh: make(chan struct{}),
	}, nil
}

func (l *Listener) Path() string { return l.path }

// Messages delivers decoded messages with a known command.
func (l *Listener) Messages() <-chan Message { return l.out }

// Serve runs the accept loop until ctx is done or Close is called.
// Malformed payloads are logged and skipped.
func (l *Listener) Serve(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("ipc: listener already serving")
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-l.stopCh:
		}
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.stopCh:
				l.wg.Wait()
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			l.log.WithError(err).Error("accept")
			_ = l.Close()
			l.wg.Wait()
			return fmt.Errorf("accept: %w", err)
		}

		l.wg.Add(1)
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	b, err := io.ReadAll(io.LimitReader(conn, maxMessageBytes))
	if err != nil {
		l.log.WithError(err).Warn("read message")
		return
	}
	msg, err := Decode(b)
	if err != nil {
		l.log.WithError(err).WithField("payload", string(b)).Warn("malformed message")
		return
	}
	if !msg.Known() {
		l.log.WithField("command", msg.Command).Debug("ignoring unknown command")
		return
	}

	select {
	case l.out <- msg:
	case <-l.stopCh:
	}
}

// Close stops accepting and removes the socket file. Serve returns once
// in-flight connections finish.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.stopCh)
		err = l.ln.Close()
		_ = os.Remove(l.path)
	})
	return err
}
