package devserver

import (
	"context"
	"fmt"
)

type seedNote struct {
	title    string
	content  string
	children []seedNote
}

var demoOutline = []seedNote{
	{title: "Inbox", content: "# Inbox\n\nThings to sort later.", children: []seedNote{
		{title: "Call the plumber", content: "Tuesday morning works."},
		{title: "Read later", content: "See [[3]] for the reading list."},
	}},
	{title: "Projects", content: "# Projects", children: []seedNote{
		{title: "Garden", content: "## Garden\n\n- tomatoes\n- basil", children: []seedNote{
			{title: "Seed order", content: "Order before March."},
		}},
		{title: "Website", content: "## Website\n\nMove to a static host."},
	}},
	{title: "Journal", content: "Daily notes live here. :smile:"},
}

// Seed loads a small demo outline.
func (s *Server) Seed(ctx context.Context) error {
	var add func(parent int64, notes []seedNote) error
	add = func(parent int64, notes []seedNote) error {
		for _, sn := range notes {
			n, err := s.store.createNote(ctx, sn.title, sn.content)
			if err != nil {
				return fmt.Errorf("seed %q: %w", sn.title, err)
			}
			if parent != 0 {
				if err := s.store.attach(ctx, n.ID, parent, ""); err != nil {
					return fmt.Errorf("seed %q: %w", sn.title, err)
				}
			}
			if err := add(n.ID, sn.children); err != nil {
				return err
			}
		}
		return nil
	}
	return add(0, demoOutline)
}
