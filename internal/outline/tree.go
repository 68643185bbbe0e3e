// Package outline projects the server's note hierarchy into a foldable tree
// for display. The filter functions operate on model.TreeNote values and never
// modify their input; the fold functions operate on the expansion flags of a
// built Tree.
package outline

import (
	"notes-tui/internal/model"
)

const (
	RootLabel   = "Notes"
	MarkPrefix  = "* "
	ErrorPrefix = "Error loading notes: "
)

// Node is one row of a built tree. The root is virtual: it has no note behind it.
type Node struct {
	ID       int64
	Title    string
	Content  *string
	Marked   bool
	IsError  bool
	Expanded bool
	Children []*Node

	parent *Node
}

func (n *Node) IsRoot() bool { return n.parent == nil }

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// HasNote reports whether the node stands for a server note.
func (n *Node) HasNote() bool { return n != nil && !n.IsRoot() && !n.IsError }

// Depth counts ancestor links up to the root; the root is 0.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Visible reports whether every ancestor of n is expanded.
func (n *Node) Visible() bool {
	for p := n.parent; p != nil; p = p.parent {
		if !p.Expanded {
			return false
		}
	}
	return true
}

func (n *Node) Label() string {
	if n.IsRoot() {
		return RootLabel
	}
	if n.Marked {
		return MarkPrefix + n.Title
	}
	return n.Title
}

// PrevSibling returns the sibling directly before n, or nil if n is first.
func (n *Node) PrevSibling() *Node {
	if n.parent == nil {
		return nil
	}
	var prev *Node
	for _, c := range n.parent.Children {
		if c == n {
			return prev
		}
		prev = c
	}
	return nil
}

type Tree struct {
	Root *Node
}

// Build converts notes into a tree with only the root expanded. marked may be
// nil. Input order is kept exactly.
func Build(notes []model.TreeNote, marked func(int64) bool) *Tree {
	root := &Node{Title: RootLabel, Expanded: true}
	var add func(parent *Node, ns []model.TreeNote)
	add = func(parent *Node, ns []model.TreeNote) {
		for _, tn := range ns {
			n := &Node{
				ID:      tn.ID,
				Title:   tn.Title,
				Content: tn.Content,
				Marked:  marked != nil && marked(tn.ID),
				parent:  parent,
			}
			parent.Children = append(parent.Children, n)
			add(n, tn.Children)
		}
	}
	add(root, notes)
	return &Tree{Root: root}
}

// ErrorTree is the placeholder shown when the tree cannot be fetched.
func ErrorTree(err error) *Tree {
	root := &Node{Title: RootLabel, Expanded: true}
	root.Children = []*Node{{Title: ErrorPrefix + err.Error(), IsError: true, parent: root}}
	return &Tree{Root: root}
}

// Find returns the node for id, or nil.
func (t *Tree) Find(id int64) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if !n.IsRoot() && !n.IsError && n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk visits every node depth-first, root included, until fn returns false.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func(*Node) bool
	walk = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	if t != nil && t.Root != nil {
		walk(t.Root)
	}
}

// Row is one visible line of the tree.
type Row struct {
	Node  *Node
	Depth int
}

// Rows lists the visible nodes: the root, then the children of every expanded node.
func (t *Tree) Rows() []Row {
	if t == nil || t.Root == nil {
		return nil
	}
	var out []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		out = append(out, Row{Node: n, Depth: depth})
		if !n.Expanded {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(t.Root, 0)
	return out
}
