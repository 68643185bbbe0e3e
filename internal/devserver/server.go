// Package devserver is a local stand-in for the note service. It keeps
// everything in an in-memory sqlite database and serves the subset of routes
// the client uses.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"notes-tui/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Server struct {
	router chi.Router
	store  *store
	md     goldmark.Markdown
	log    logrus.FieldLogger
}

func New(log logrus.FieldLogger) (*Server, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Server{
		store: st,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, emoji.Emoji),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		log: log.WithField("component", "devserver"),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) Close() error { return s.store.close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetClock replaces the timestamp source; tests use it for stable output.
func (s *Server) SetClock(now func() time.Time) { s.store.now = now }

// CreateNote inserts a note directly, bypassing HTTP.
func (s *Server) CreateNote(ctx context.Context, title, content string) (model.Note, error) {
	return s.store.createNote(ctx, title, content)
}

func (s *Server) Attach(ctx context.Context, child, parent int64) error {
	return s.store.attach(ctx, child, parent, model.HierarchyBlock)
}

func (s *Server) PutAsset(ctx context.Context, name, contentType string, data []byte) error {
	return s.store.putAsset(ctx, name, contentType, data)
}

func (s *Server) Tree(ctx context.Context) ([]model.TreeNote, error) {
	return s.store.tree(ctx)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/notes/tree", s.handleTree)
	r.Get("/notes/flat", s.handleListNotes)
	r.Post("/notes/flat", s.handleCreateNote)
	r.Get("/notes/flat/{id}", s.handleGetNote)
	r.Put("/notes/flat/{id}", s.handleUpdateNote)
	r.Delete("/notes/flat/{id}", s.handleDeleteNote)
	r.Get("/notes/flat/{id}/render/{format}", s.handleRenderNote)
	r.Get("/notes/hierarchy", s.handleRelations)
	r.Post("/notes/hierarchy/attach", s.handleAttach)
	r.Delete("/notes/hierarchy/detach/{id}", s.handleDetach)
	r.Get("/notes/search/fts", s.handleSearch)
	r.Post("/render/markdown", s.handleRenderMarkdown)
	r.Get("/assets/download/{name}", s.handleAsset)

	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.store.tree(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.listNotes(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if excludeContent(r) {
		for i := range notes {
			notes[i].Content = ""
		}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return
	}
	n, err := s.store.createNote(r.Context(), req.Title, req.Content)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := s.store.getNote(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if excludeContent(r) {
		n.Content = ""
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd model.NoteUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return
	}
	n, err := s.store.updateNote(r.Context(), id, upd)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.deleteNote(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteNoteResponse{Message: "Note deleted", DeletedID: id})
}

func (s *Server) handleRenderNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := s.store.getNote(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, ct, err := s.render(n.Content, chi.URLParam(r, "format"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(out)
}

func (s *Server) handleRenderMarkdown(w http.ResponseWriter, r *http.Request) {
	var req model.RenderMarkdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return
	}
	format := req.Format
	if format == "" {
		format = "html"
	}
	out, ct, err := s.render(req.Content, format)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(out)
}

func (s *Server) render(content, format string) ([]byte, string, error) {
	switch format {
	case "md", "text":
		return []byte(content), "text/plain; charset=utf-8", nil
	case "html":
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(content), &buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/html; charset=utf-8", nil
	default:
		return nil, "", errors.New("unsupported format: " + format)
	}
}

func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	rels, err := s.store.relations(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var req model.AttachNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return
	}
	if err := s.store.attach(r.Context(), req.ChildNoteID, req.ParentNoteID, req.HierarchyType); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note attached"})
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.detach(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note detached"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	ct, data, err := s.store.asset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoteNotFound), errors.Is(err, errNoParent), errors.Is(err, errNoAsset):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errCycle):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid note id")
		return 0, false
	}
	return id, true
}

func excludeContent(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("exclude_content"))
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
