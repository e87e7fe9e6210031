package groupdh

// node is one arena entry covering sessions[lo:hi]. Leaves have
// hi-lo == 1 and no children.
type node struct {
	lo, hi      int
	left, right int
}

func (n node) leaf() bool { return n.hi-n.lo == 1 }

// Tree is a binary split of a run's sessions, stored as an arena. Index 0
// is the root.
type Tree struct {
	nodes    []node
	sessions []Session
}

// Build splits sessions recursively until every leaf holds one session.
// The first half of every split has floor(n/2) sessions.
func Build(sessions []Session) *Tree {
	t := &Tree{sessions: sessions}
	if len(sessions) > 0 {
		t.build(0, len(sessions))
	}
	return t
}

func (t *Tree) build(lo, hi int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{lo: lo, hi: hi, left: -1, right: -1})
	if hi-lo == 1 {
		return idx
	}
	mid := lo + (hi-lo)/2
	l := t.build(lo, mid)
	r := t.build(mid, hi)
	t.nodes[idx].left = l
	t.nodes[idx].right = r
	return idx
}

// Len returns the number of sessions covered by the tree.
func (t *Tree) Len() int { return len(t.sessions) }

// Leaves returns the session ranges of every leaf in left-to-right order.
func (t *Tree) Leaves() [][2]int {
	var out [][2]int
	var walk func(i int)
	walk = func(i int) {
		n := t.nodes[i]
		if n.leaf() {
			out = append(out, [2]int{n.lo, n.hi})
			return
		}
		walk(n.left)
		walk(n.right)
	}
	if len(t.nodes) > 0 {
		walk(0)
	}
	return out
}

// Depth returns the height of the tree, counting a lone leaf as 1.
func (t *Tree) Depth() int {
	var depth func(i int) int
	depth = func(i int) int {
		n := t.nodes[i]
		if n.leaf() {
			return 1
		}
		l, r := depth(n.left), depth(n.right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.nodes) == 0 {
		return 0
	}
	return depth(0)
}
