// Package webtui serves the outline browser in a web page: every websocket
// connection runs the browser under a PTY and relays the terminal.
package webtui

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr string

	// Command and Args start one terminal session.
	Command string
	Args    []string
	Env     []string

	Log logrus.FieldLogger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  logrus.FieldLogger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("webtui: missing command")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log.WithField("component", "webtui")}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	r.Get("/terminal", s.handleTerminal)
	r.Get("/ws", s.handleWS)
	r.Get("/static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	r.Get("/static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))
	return r
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", nil); err != nil {
		s.log.WithError(err).Warn("render terminal page")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
