package preview

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"notes-tui/internal/devserver"
	"notes-tui/internal/ipc"
	"notes-tui/internal/model"
	"notes-tui/internal/notestore"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev    *devserver.Server
	client *notestore.Client
	srv    *Server
	sock   string
}

func newFixture(t *testing.T, dark bool) *fixture {
	t.Helper()
	dev, err := devserver.New(nil)
	require.NoError(t, err)
	ts := httptest.NewServer(dev)
	t.Cleanup(func() {
		ts.Close()
		_ = dev.Close()
	})

	dir, err := os.MkdirTemp("", "pv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	client := notestore.NewClient(ts.URL, 5*time.Second)
	sock := filepath.Join(dir, "p.sock")
	srv, err := New(Options{SocketPath: sock, Addr: "127.0.0.1:0", Dark: dark, Source: client})
	require.NoError(t, err)
	return &fixture{dev: dev, client: client, srv: srv, sock: sock}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{SocketPath: "/tmp/x.sock", Addr: ":0"})
	assert.Error(t, err)
	_, err = New(Options{Addr: ":0", Source: notestore.NewClient("http://localhost:1", time.Second)})
	assert.Error(t, err)
}

func TestApplySetNoteAndRefresh(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	n, err := f.dev.CreateNote(ctx, "Hello", "# Hello\n\nsee [[2]]")
	require.NoError(t, err)

	f.srv.apply(ctx, ipc.SetNote(n.ID))
	id, frag := f.srv.Current()
	assert.Equal(t, n.ID, id)
	assert.Contains(t, frag, "<h1")
	assert.Contains(t, frag, `href="/show/2"`)

	body := "changed body"
	_, err = f.client.UpdateNote(ctx, n.ID, model.NoteUpdate{Content: &body})
	require.NoError(t, err)
	f.srv.apply(ctx, ipc.Refresh())
	_, frag = f.srv.Current()
	assert.Contains(t, frag, "changed body")
}

func TestRefreshWithoutNoteIsIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.srv.apply(context.Background(), ipc.Refresh())
	id, frag := f.srv.Current()
	assert.Zero(t, id)
	assert.Empty(t, frag)
}

func TestRenderFailureShowsMessage(t *testing.T) {
	f := newFixture(t, false)
	f.srv.apply(context.Background(), ipc.SetNote(999))
	id, frag := f.srv.Current()
	assert.Equal(t, int64(999), id)
	assert.Contains(t, frag, "Could not render note 999")
}

func TestRewriteLinks(t *testing.T) {
	in := `<img src="asset:///pic.png"><a href="file:///note/7">x</a> [[12]]`
	out := rewriteLinks(in)
	assert.Contains(t, out, `src="/assets/pic.png"`)
	assert.Contains(t, out, `href="/show/7"`)
	assert.Contains(t, out, `<a class="note-link" href="/show/12">[[12]]</a>`)
}

func TestPageUsesTheme(t *testing.T) {
	for _, dark := range []bool{false, true} {
		f := newFixture(t, dark)
		ts := httptest.NewServer(f.srv.Handler())
		_, body := get(t, ts.URL+"/")
		want := "light"
		if dark {
			want = "dark"
		}
		assert.Contains(t, body, `<body class="`+want+`">`)
		assert.Contains(t, body, "No note selected.")

		code, css := get(t, ts.URL+"/static/"+want+".css")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, css, "body."+want)
		ts.Close()
	}
}

func TestNoteFragmentAndAssets(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.dev.PutAsset(ctx, "pic.txt", "text/plain", []byte("pixels")))
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	_, body := get(t, ts.URL+"/note")
	assert.Contains(t, body, "No note selected.")

	n, err := f.dev.CreateNote(ctx, "A", "alpha text")
	require.NoError(t, err)
	f.srv.apply(ctx, ipc.SetNote(n.ID))
	_, body = get(t, ts.URL+"/note")
	assert.Contains(t, body, "alpha text")

	code, body := get(t, ts.URL+"/assets/pic.txt")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pixels", body)

	code, _ = get(t, ts.URL+"/assets/missing.png")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, ts.URL+"/show/abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStreamPatchesNote(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	waitFor := func(want string) {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				require.True(t, ok, "stream closed before %q", want)
				if strings.Contains(l, want) {
					return
				}
			case <-timeout:
				t.Fatalf("no %q on stream", want)
			}
		}
	}

	waitFor("No note selected.")
	require.Eventually(t, func() bool { return f.srv.hub.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	n, err := f.dev.CreateNote(context.Background(), "S", "streamed text")
	require.NoError(t, err)
	f.srv.apply(context.Background(), ipc.SetNote(n.ID))
	waitFor("streamed text")
}

func TestRunFollowsSocketMessages(t *testing.T) {
	f := newFixture(t, false)
	n, err := f.dev.CreateNote(context.Background(), "Live", "live content")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()
	addr := f.srv.Addr()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return f.srv.hub.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ipc.Send(f.sock, ipc.SetNote(n.ID)))
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))

	_, body := get(t, "http://"+addr+"/note")
	assert.Contains(t, body, "live content")

	other, err := f.dev.CreateNote(context.Background(), "Other", "other content")
	require.NoError(t, err)
	code, _ := get(t, "http://"+addr+"/show/"+strconv.FormatInt(other.ID, 10))
	assert.Equal(t, http.StatusOK, code)
	require.Eventually(t, func() bool {
		id, _ := f.srv.Current()
		return id == other.ID
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not stop")
	}
	_, err = os.Stat(f.sock)
	assert.True(t, os.IsNotExist(err))
}

func TestPageIsCompressed(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/static/base.css", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestNoteSelectorListsNotes(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	parent, err := f.dev.CreateNote(ctx, "Projects", "")
	require.NoError(t, err)
	child, err := f.dev.CreateNote(ctx, "Garden", "beds & <soil>")
	require.NoError(t, err)
	_, err = f.dev.CreateNote(ctx, "Alpha", "")
	require.NoError(t, err)
	require.NoError(t, f.dev.Attach(ctx, child.ID, parent.ID))
	f.srv.apply(ctx, ipc.SetNote(child.ID))

	opts, err := f.srv.noteOptions(ctx)
	require.NoError(t, err)
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		labels = append(labels, o.Label)
		assert.Equal(t, o.ID == child.ID, o.Selected, o.Label)
	}
	assert.Equal(t, []string{"Alpha", "Projects", "Projects / Garden"}, labels)

	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()
	code, body := get(t, ts.URL+"/notes")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<select id="note-select"`)
	assert.Contains(t, body, `<option value="`+strconv.FormatInt(child.ID, 10)+`" selected>Projects / Garden</option>`)
	assert.NotContains(t, body, "soil")
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	post := func(form url.Values) string {
		t.Helper()
		resp, err := http.PostForm(ts.URL+"/theme", form)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}

	assert.Equal(t, "dark", post(nil))
	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, `<body class="dark">`)

	assert.Equal(t, "light", post(nil))
	assert.Equal(t, "dark", post(url.Values{"theme": {"dark"}}))
	assert.Equal(t, "dark", post(url.Values{"theme": {"dark"}}))
	assert.Equal(t, "light", post(url.Values{"theme": {"light"}}))
}

func TestThemeChangeReachesOpenPages(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return f.srv.hub.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/theme", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "theme:dark", string(msg))
}
