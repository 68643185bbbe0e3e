package webtui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, command string, args ...string) *httptest.Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", Command: command, Args: args})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// readUntil collects terminal output until it contains want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) string {
	t.Helper()
	var out strings.Builder
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), want) {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "output so far: %q", out.String())
		out.Write(data)
	}
	return out.String()
}

func TestNewServerValidates(t *testing.T) {
	_, err := NewServer(ServerConfig{Command: "notes"})
	assert.Error(t, err)
	_, err = NewServer(ServerConfig{Addr: ":0"})
	assert.Error(t, err)
}

func TestTerminalPage(t *testing.T) {
	ts := newTestServer(t, "/bin/sh", "-c", "true")

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/terminal", resp.Request.URL.Path)
	assert.Contains(t, string(b), `id="terminal"`)
	assert.Contains(t, string(b), "/static/app.js")
}

func TestSessionRelaysOutput(t *testing.T) {
	ts := newTestServer(t, "/bin/sh", "-c", "printf 'hello from pty'; sleep 2")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readUntil(t, conn, "hello from pty")
}

func TestSessionRelaysKeystrokes(t *testing.T) {
	ts := newTestServer(t, "/bin/cat")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize","cols":80,"rows":24}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json}\n")))
	readUntil(t, conn, "{not json}")
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

func TestSessionStartsAtPageSize(t *testing.T) {
	ts := newTestServer(t, "/bin/sh", "-c", "stty size; sleep 2")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?cols=90&rows=30"), nil)
	require.NoError(t, err)
	defer conn.Close()

	readUntil(t, conn, "30 90")
}

func TestSessionClampsTinySize(t *testing.T) {
	ts := newTestServer(t, "/bin/sh", "-c", "stty size; sleep 2")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?cols=5&rows=2"), nil)
	require.NoError(t, err)
	defer conn.Close()

	readUntil(t, conn, "10 40")
}

func TestClientExitClosesSocket(t *testing.T) {
	ts := newTestServer(t, "/bin/sh", "-c", "printf bye; sleep 0.3")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	readUntil(t, conn, "bye")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err = conn.ReadMessage()
		if err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, closedReason, ce.Text)
}

func TestParseResize(t *testing.T) {
	tests := []struct {
		in   string
		want termSize
		ok   bool
	}{
		{`{"type":"resize","cols":100,"rows":30}`, termSize{Cols: 100, Rows: 30}, true},
		{`{"type":"RESIZE","cols":100,"rows":30}`, termSize{Cols: 100, Rows: 30}, true},
		{`{"type":"resize","cols":3,"rows":2}`, termSize{Cols: minCols, Rows: minRows}, true},
		{`{"type":"resize","cols":5000,"rows":30}`, termSize{Cols: maxDim, Rows: 30}, true},
		{`{"type":"resize","cols":0,"rows":30}`, termSize{}, false},
		{`{"type":"paste","cols":80,"rows":24}`, termSize{}, false},
		{`{not json}`, termSize{}, false},
		{`q`, termSize{}, false},
	}
	for _, tt := range tests {
		got, ok := parseResize([]byte(tt.in))
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
