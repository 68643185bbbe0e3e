package outline

// ExpansionSet records which nodes of a tree were expanded. The zero value
// means nothing was captured; restoring it keeps the tree's defaults.
type ExpansionSet struct {
	captured bool
	root     bool
	ids      map[int64]struct{}
}

// Capture records the expanded nodes reachable through expanded ancestors.
// Nodes hidden under a collapsed ancestor are not recorded.
func Capture(t *Tree) ExpansionSet {
	s := ExpansionSet{captured: true, ids: map[int64]struct{}{}}
	if t == nil || t.Root == nil {
		return s
	}
	s.root = t.Root.Expanded
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if c.IsError || !c.Expanded {
				continue
			}
			s.ids[c.ID] = struct{}{}
			walk(c)
		}
	}
	if t.Root.Expanded {
		walk(t.Root)
	}
	return s
}

func (s ExpansionSet) Captured() bool { return s.captured }

func (s ExpansionSet) Len() int { return len(s.ids) }

func (s ExpansionSet) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Restore expands the nodes recorded in s. Nodes absent from s keep their state.
func Restore(t *Tree, s ExpansionSet) {
	if t == nil || t.Root == nil || !s.captured {
		return
	}
	t.Root.Expanded = s.root
	t.Walk(func(n *Node) bool {
		if !n.IsRoot() && !n.IsError && s.Contains(n.ID) {
			n.Expanded = true
		}
		return true
	})
}
