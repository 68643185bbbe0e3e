package outline

import (
	"sort"
	"strings"

	"notes-tui/internal/model"
)

// MatchesQuery reports whether every distinct character of query occurs
// somewhere in title, ignoring case. Order and adjacency do not matter.
func MatchesQuery(title, query string) bool {
	title = strings.ToLower(title)
	for _, r := range strings.ToLower(query) {
		if !strings.ContainsRune(title, r) {
			return false
		}
	}
	return true
}

// FilterByQuery keeps the notes whose title matches query plus every ancestor
// of such a note. An empty query returns notes unchanged.
func FilterByQuery(notes []model.TreeNote, query string) []model.TreeNote {
	if query == "" {
		return notes
	}
	return prune(notes, func(n model.TreeNote) bool { return MatchesQuery(n.Title, query) })
}

// FilterByIDs keeps the notes whose id is in ids plus every ancestor of such a note.
func FilterByIDs(notes []model.TreeNote, ids map[int64]bool) []model.TreeNote {
	return prune(notes, func(n model.TreeNote) bool { return ids[n.ID] })
}

// prune copies the path-preserving subtree of notes that satisfy keep.
// Input nodes are never modified.
func prune(notes []model.TreeNote, keep func(model.TreeNote) bool) []model.TreeNote {
	out := []model.TreeNote{}
	for _, n := range notes {
		children := prune(n.Children, keep)
		if !keep(n) && len(children) == 0 {
			continue
		}
		cp := n
		cp.Children = children
		out = append(out, cp)
	}
	return out
}

// Flatten returns the leaves of notes in depth-first order, each without children.
func Flatten(notes []model.TreeNote) []model.TreeNote {
	out := []model.TreeNote{}
	var walk func([]model.TreeNote)
	walk = func(ns []model.TreeNote) {
		for _, n := range ns {
			if n.IsLeaf() {
				cp := n
				cp.Children = nil
				out = append(out, cp)
				continue
			}
			walk(n.Children)
		}
	}
	walk(notes)
	return out
}

// SortBySearchRank orders siblings at every level: branches first, then
// leaves by ascending rank. Notes missing from rank sort after ranked leaves.
func SortBySearchRank(notes []model.TreeNote, rank map[int64]int) []model.TreeNote {
	out := make([]model.TreeNote, len(notes))
	for i, n := range notes {
		cp := n
		if !n.IsLeaf() {
			cp.Children = SortBySearchRank(n.Children, rank)
		}
		out[i] = cp
	}
	key := func(n model.TreeNote) int {
		if !n.IsLeaf() {
			return -1
		}
		if r, ok := rank[n.ID]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

// Query is the projection a session applies to the fetched tree.
type Query struct {
	Filter string
	Search string
	Flat   bool
}

// Active reports whether the projection differs from the plain tree.
func (q Query) Active() bool { return q.Filter != "" || q.Search != "" }

// Project applies q to tree. hits are the ranked search results for q.Search
// and are ignored when no search is set. Search decides the node set; the
// filter then narrows the search result.
func Project(tree []model.TreeNote, hits []model.Note, q Query) []model.TreeNote {
	if q.Search != "" {
		var out []model.TreeNote
		if q.Flat {
			out = make([]model.TreeNote, 0, len(hits))
			seen := make(map[int64]struct{}, len(hits))
			for _, h := range hits {
				if _, dup := seen[h.ID]; dup {
					continue
				}
				seen[h.ID] = struct{}{}
				content := h.Content
				out = append(out, model.TreeNote{ID: h.ID, Title: h.Title, Content: &content})
			}
		} else {
			ids := make(map[int64]bool, len(hits))
			rank := make(map[int64]int, len(hits))
			for i, h := range hits {
				ids[h.ID] = true
				if _, seen := rank[h.ID]; !seen {
					rank[h.ID] = i
				}
			}
			out = SortBySearchRank(FilterByIDs(tree, ids), rank)
		}
		return FilterByQuery(out, q.Filter)
	}
	if q.Filter != "" {
		out := FilterByQuery(tree, q.Filter)
		if q.Flat {
			out = Flatten(out)
		}
		return out
	}
	return tree
}
