package preview

import (
	"embed"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"notes-tui/internal/notestore"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

var pageTmpl = template.Must(template.ParseFS(assetsFS, "templates/page.html"))

type pageVM struct {
	Theme    string
	Fragment template.HTML
}

func (s *Server) theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return themeName(s.dark)
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	_, frag := s.Current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	// Fragments come from the note service's own renderer.
	vm := pageVM{Theme: s.theme(), Fragment: template.HTML(frag)}
	if err := pageTmpl.Execute(w, vm); err != nil {
		s.log.WithError(err).Warn("render page")
	}
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	id, frag := s.Current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if id == 0 {
		_, _ = io.WriteString(w, `<p class="empty">No note selected.</p>`)
		return
	}
	_, _ = io.WriteString(w, frag)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b, err := assetsFS.ReadFile("static/" + path.Base(name))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = w.Write(b)
}

// handleAsset proxies an asset download from the note service.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")
	body, ct, err := s.opts.Source.DownloadAsset(r.Context(), name)
	switch {
	case notestore.IsNotFound(err):
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.WithError(err).WithField("asset", name).Warn("download asset")
		http.Error(w, "asset unavailable", http.StatusBadGateway)
		return
	}
	defer body.Close()
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, body); err != nil {
		s.log.WithError(err).WithField("asset", name).Debug("copy asset")
	}
}

// handleShow switches the preview to another note from a link on the page.
func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}
	select {
	case s.local <- id:
	case <-r.Context().Done():
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
