// Package preview is the secondary surface that follows the outline browser.
// It listens for ipc messages, renders the selected note through the note
// service and serves it as a live-reloading local web page.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"notes-tui/internal/ipc"
	"notes-tui/internal/model"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source is the part of the note service the preview renders from.
type Source interface {
	RenderNote(ctx context.Context, id int64, format string) (string, error)
	DownloadAsset(ctx context.Context, name string) (io.ReadCloser, string, error)
	ListNotes(ctx context.Context) ([]model.Note, error)
	Relations(ctx context.Context) ([]model.HierarchyRelation, error)
}

type Options struct {
	SocketPath string
	Addr       string
	Dark       bool
	Source     Source
	Log        logrus.FieldLogger
}

const shutdownTimeout = 3 * time.Second

type Server struct {
	opts Options
	log  logrus.FieldLogger
	hub  *hub

	// local carries note switches requested from the page itself.
	local chan int64

	mu       sync.RWMutex
	noteID   int64
	fragment string
	dark     bool

	bound chan struct{}
	addr  string
}

func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("preview: nil source")
	}
	if strings.TrimSpace(opts.SocketPath) == "" {
		return nil, errors.New("preview: missing socket path")
	}
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("preview: missing addr")
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "preview")
	return &Server{
		opts:  opts,
		log:   log,
		hub:   newHub(log),
		local: make(chan int64, 4),
		dark:  opts.Dark,
		bound: make(chan struct{}),
	}, nil
}

// Bound is closed once Run has bound its addresses.
func (s *Server) Bound() <-chan struct{} { return s.bound }

// Addr is the bound HTTP address. It blocks until Run has bound it.
func (s *Server) Addr() string {
	<-s.bound
	return s.addr
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Group(func(r chi.Router) {
		if compress, err := httpcompression.DefaultAdapter(); err == nil {
			r.Use(compress)
		} else {
			s.log.WithError(err).Warn("response compression disabled")
		}
		r.Get("/", s.handlePage)
		r.Get("/note", s.handleNote)
		r.Get("/notes", s.handleNotes)
		r.Get("/static/{name}", s.handleStatic)
	})
	r.Post("/theme", s.handleTheme)
	r.Get("/ws", s.handleWS)
	r.Get("/stream", s.handleStream)
	r.Get("/assets/{id}", s.handleAsset)
	r.Get("/show/{id}", s.handleShow)
	return r
}

// Run binds the socket and the HTTP address, then serves until ctx is done.
// The socket file is removed on the way out.
func (s *Server) Run(ctx context.Context) error {
	ln, err := ipc.Listen(s.opts.SocketPath, s.log)
	if err != nil {
		return err
	}
	hl, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.addr = hl.Addr().String()
	close(s.bound)

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,

		// Streams end with the preview.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}
	s.log.WithFields(logrus.Fields{"addr": s.addr, "socket": s.opts.SocketPath}).Info("preview running")

	g.Go(func() error { return ln.Serve(gctx) })
	g.Go(func() error { return s.loop(gctx, ln.Messages()) })
	g.Go(func() error {
		if err := srv.Serve(hl); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.hub.closeAll()
		_ = ln.Close()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// loop is the only writer of the current note.
func (s *Server) loop(ctx context.Context, msgs <-chan ipc.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			s.apply(ctx, msg)
		case id := <-s.local:
			s.apply(ctx, ipc.SetNote(id))
		}
	}
}

func (s *Server) apply(ctx context.Context, msg ipc.Message) {
	var id int64
	switch msg.Command {
	case ipc.CommandSetNote:
		id = *msg.NoteID
	case ipc.CommandRefresh:
		s.mu.RLock()
		id = s.noteID
		s.mu.RUnlock()
		if id == 0 {
			return
		}
	default:
		s.log.WithField("command", msg.Command).Warn("ignoring unknown command")
		return
	}

	frag, err := s.opts.Source.RenderNote(ctx, id, "html")
	if err != nil {
		s.log.WithError(err).WithField("note", id).Warn("render note")
		frag = fmt.Sprintf("<p class=\"error\">Could not render note %d: %s</p>", id, html.EscapeString(err.Error()))
	} else {
		frag = rewriteLinks(frag)
	}

	s.mu.Lock()
	s.noteID = id
	s.fragment = frag
	s.mu.Unlock()
	s.hub.broadcast("reload")
}

// Current returns the note on display and its rendered fragment.
func (s *Server) Current() (int64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.noteID, s.fragment
}

var wikiLink = regexp.MustCompile(`\[\[(\d+)\]\]`)

var linkRewriter = strings.NewReplacer(
	`"asset:///`, `"/assets/`,
	`"asset:`, `"/assets/`,
	`"file:///note/`, `"/show/`,
)

// rewriteLinks points asset and note links in service HTML at this server.
func rewriteLinks(frag string) string {
	frag = linkRewriter.Replace(frag)
	return wikiLink.ReplaceAllString(frag, `<a class="note-link" href="/show/$1">[[$1]]</a>`)
}
