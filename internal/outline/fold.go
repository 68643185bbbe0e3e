package outline

// MaxDepth is the depth of the deepest leaf; a tree with no notes reports 0.
func MaxDepth(t *Tree) int {
	deepest := 0
	t.Walk(func(n *Node) bool {
		if !n.HasChildren() {
			if d := n.Depth(); d > deepest {
				deepest = d
			}
		}
		return true
	})
	return deepest
}

// FoldToLevel expands every node at depth <= level and collapses the first
// deeper node on each path.
func FoldToLevel(t *Tree, level int) {
	if t == nil || t.Root == nil {
		return
	}
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Depth() > level {
			n.Expanded = false
			return
		}
		n.Expanded = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// CollapseAll collapses every node, the root included.
func CollapseAll(t *Tree) {
	t.Walk(func(n *Node) bool {
		n.Expanded = false
		return true
	})
}

func ExpandAll(t *Tree) {
	t.Walk(func(n *Node) bool {
		n.Expanded = true
		return true
	})
}

// CycleFoldForward moves to the next fold level: 0 becomes 1, anything else
// doubles. Passing the deepest leaf wraps to 0 with the tree fully collapsed.
func CycleFoldForward(t *Tree, current int) int {
	next := current * 2
	if current == 0 {
		next = 1
	}
	if next > MaxDepth(t) {
		CollapseAll(t)
		return 0
	}
	FoldToLevel(t, next)
	return next
}

// CycleFoldBackward halves the fold level; 1 or less collapses everything.
func CycleFoldBackward(t *Tree, current int) int {
	if current <= 1 {
		CollapseAll(t)
		return 0
	}
	next := current / 2
	FoldToLevel(t, next)
	return next
}

// Reveal expands every ancestor of n so that n is visible.
func Reveal(n *Node) {
	if n == nil {
		return
	}
	for p := n.parent; p != nil; p = p.parent {
		p.Expanded = true
	}
}
