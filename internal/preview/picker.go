package preview

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
)

var pickerTmpl = template.Must(template.ParseFS(assetsFS, "templates/picker.html"))

type noteOption struct {
	ID       int64
	Label    string
	Selected bool
}

// noteOptions lists every note for the page's selector. A note with a parent
// is labelled "Parent / Title" so repeated titles stay apart.
func (s *Server) noteOptions(ctx context.Context) ([]noteOption, error) {
	notes, err := s.opts.Source.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(notes))
	for _, n := range notes {
		titles[n.ID] = n.Title
	}

	// Labels degrade to bare titles when the hierarchy is unavailable.
	parents := map[int64]int64{}
	rels, err := s.opts.Source.Relations(ctx)
	if err != nil {
		s.log.WithError(err).Debug("list relations")
	}
	for _, rel := range rels {
		parents[rel.ChildID] = rel.ParentID
	}

	current, _ := s.Current()
	out := make([]noteOption, 0, len(notes))
	for _, n := range notes {
		label := strings.TrimSpace(n.Title)
		if label == "" {
			label = fmt.Sprintf("Note %d", n.ID)
		}
		if p, ok := parents[n.ID]; ok && titles[p] != "" {
			label = titles[p] + " / " + label
		}
		out = append(out, noteOption{ID: n.ID, Label: label, Selected: n.ID == current})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
	})
	return out, nil
}

// handleNotes serves the note selector. Choosing a note goes through /show/{id}.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	opts, err := s.noteOptions(r.Context())
	if err != nil {
		s.log.WithError(err).Warn("list notes")
		http.Error(w, "notes unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pickerTmpl.Execute(w, opts); err != nil {
		s.log.WithError(err).Warn("render note selector")
	}
}

// handleTheme switches between the light and dark stylesheet. A "theme"
// form value of dark or light picks one; anything else toggles.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	want := strings.ToLower(strings.TrimSpace(r.FormValue("theme")))
	s.mu.Lock()
	switch want {
	case "dark":
		s.dark = true
	case "light":
		s.dark = false
	default:
		s.dark = !s.dark
	}
	theme := themeName(s.dark)
	s.mu.Unlock()

	s.log.WithField("theme", theme).Debug("theme changed")
	s.hub.broadcast("theme:" + theme)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, theme)
}
