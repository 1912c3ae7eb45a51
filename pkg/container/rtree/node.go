package rtree

import "github.com/go-sod/sidx/pkg/geom"

const nilNode = -1

// node is either a leaf holding points or an internal node holding child
// indices into the tree arena.
type node struct {
	leaf   bool
	parent int
	mbr    geom.Rect
	// empty is set when no point lives under the node; its mbr is then
	// the zero rectangle and must not widen the parent's box.
	empty    bool
	entries  []geom.Point
	children []int
}

func (t *Tree) alloc(leaf bool) int {
	n := node{leaf: leaf, parent: nilNode, empty: true}
	if l := len(t.free); l > 0 {
		idx := t.free[l-1]
		t.free = t.free[:l-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *Tree) release(idx int) {
	t.nodes[idx] = node{parent: nilNode, empty: true}
	t.free = append(t.free, idx)
}

func (t *Tree) count(idx int) int {
	n := &t.nodes[idx]
	if n.leaf {
		return len(n.entries)
	}
	return len(n.children)
}

func (t *Tree) isFull(idx int) bool {
	return t.count(idx) >= t.maxEntries
}

func (t *Tree) isUnderfull(idx int) bool {
	return t.count(idx) < t.minEntries
}

func (t *Tree) setChildren(idx int, children []int) {
	t.nodes[idx].children = children
	for _, c := range children {
		t.nodes[c].parent = idx
	}
}

func (t *Tree) insertChildAfter(parent, after, child int) {
	kids := t.nodes[parent].children
	pos := indexOf(kids, after) + 1
	kids = append(kids, nilNode)
	copy(kids[pos+1:], kids[pos:])
	kids[pos] = child
	t.nodes[parent].children = kids
	t.nodes[child].parent = parent
}

func (t *Tree) removeChild(parent, child int) {
	kids := t.nodes[parent].children
	if pos := indexOf(kids, child); pos >= 0 {
		t.nodes[parent].children = append(kids[:pos], kids[pos+1:]...)
	}
}

// recompute refreshes the cached box of idx from its entries or from the
// cached boxes of its children.
func (t *Tree) recompute(idx int) {
	n := &t.nodes[idx]
	if n.leaf {
		r, ok := geom.Bound(n.entries...)
		n.mbr, n.empty = r, !ok
		return
	}
	n.mbr, n.empty = geom.Rect{}, true
	for _, c := range n.children {
		child := &t.nodes[c]
		if child.empty {
			continue
		}
		if n.empty {
			n.mbr, n.empty = child.mbr, false
			continue
		}
		n.mbr = geom.BoundingBox(n.mbr, child.mbr)
	}
}

// adjustPath recomputes idx and every ancestor up to the root.
func (t *Tree) adjustPath(idx int) {
	for idx != nilNode {
		t.recompute(idx)
		idx = t.nodes[idx].parent
	}
}

func indexOf(list []int, v int) int {
	for i := range list {
		if list[i] == v {
			return i
		}
	}
	return -1
}
