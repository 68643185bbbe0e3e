package webtui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

const (
	defaultCols = 120
	defaultRows = 40

	// The outline needs room for the tree, the viewer and the status line.
	minCols = 40
	minRows = 10
	maxDim  = 1000

	writeWait = 10 * time.Second

	closedReason = "outline closed"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "://"+strings.TrimSpace(r.Host))
	},
}

// termSize is a PTY size in cells.
type termSize struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (z termSize) clamped() termSize {
	clamp := func(v, lo int) int {
		if v < lo {
			return lo
		}
		if v > maxDim {
			return maxDim
		}
		return v
	}
	return termSize{Cols: clamp(z.Cols, minCols), Rows: clamp(z.Rows, minRows)}
}

func (z termSize) winsize() *pty.Winsize {
	return &pty.Winsize{Cols: uint16(z.Cols), Rows: uint16(z.Rows)}
}

// initialSize reads ?cols=&rows= so the first frame is laid out for the
// page's terminal instead of being redrawn after the first resize.
func initialSize(r *http.Request) termSize {
	z := termSize{Cols: defaultCols, Rows: defaultRows}
	if v, err := strconv.Atoi(r.URL.Query().Get("cols")); err == nil {
		z.Cols = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("rows")); err == nil {
		z.Rows = v
	}
	return z.clamped()
}

// parseResize recognizes a {"type":"resize","cols":C,"rows":R} frame.
// Anything else, including a typed "{", is a keystroke.
func parseResize(data []byte) (termSize, bool) {
	if len(data) == 0 || data[0] != '{' {
		return termSize{}, false
	}
	var m struct {
		Type string `json:"type"`
		termSize
	}
	if err := json.Unmarshal(data, &m); err != nil || !strings.EqualFold(strings.TrimSpace(m.Type), "resize") {
		return termSize{}, false
	}
	if m.Cols <= 0 || m.Rows <= 0 {
		return termSize{}, false
	}
	return m.termSize.clamped(), true
}

// terminal is one outline client running under a PTY.
type terminal struct {
	cmd  *exec.Cmd
	ptmx *os.File
	once sync.Once
}

func (s *Server) startTerminal(size termSize) (*terminal, error) {
	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
	cmd.Env = append(cmd.Env, s.cfg.Env...)

	ptmx, err := pty.StartWithSize(cmd, size.winsize())
	if err != nil {
		return nil, err
	}
	return &terminal{cmd: cmd, ptmx: ptmx}, nil
}

func (t *terminal) resize(size termSize) error {
	return pty.Setsize(t.ptmx, size.winsize())
}

// close kills the client and releases the PTY. Safe to call more than once.
func (t *terminal) close() {
	t.once.Do(func() {
		_ = t.ptmx.Close()
		_ = t.cmd.Process.Kill()
		_, _ = t.cmd.Process.Wait()
	})
}

// relayOutput copies terminal output to binary frames until the client exits.
func (t *terminal) relayOutput(conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			// Linux reports a PTY whose child exited as EIO.
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) {
				return nil
			}
			return err
		}
	}
}

// relayInput feeds keystrokes to the terminal and applies resize frames.
func (t *terminal) relayInput(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		if size, ok := parseResize(data); ok {
			_ = t.resize(size)
			continue
		}
		if _, err := t.ptmx.Write(data); err != nil {
			return err
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade")
		return
	}
	defer conn.Close()

	term, err := s.startTerminal(initialSize(r))
	if err != nil {
		s.log.WithError(err).Warn("start terminal session")
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer term.close()

	var wg sync.WaitGroup
	outDone := make(chan error, 1)
	inDone := make(chan error, 1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outDone <- term.relayOutput(conn)
	}()
	go func() {
		defer wg.Done()
		inDone <- term.relayInput(conn)
	}()

	select {
	case err := <-outDone:
		if err != nil {
			s.log.WithError(err).Debug("terminal output")
		}
		// Tell the page the client is gone so it does not wait for output.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closedReason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	case err := <-inDone:
		s.log.WithError(err).Debug("browser disconnected")
	case <-r.Context().Done():
	}

	// Unblock whichever relay is still reading.
	term.close()
	_ = conn.Close()
	wg.Wait()
}
