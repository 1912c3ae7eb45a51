package rtree

import (
	"github.com/go-sod/sidx/pkg/geom"
)

// Delete removes the first entry equal to p from the leaf that insertion
// would pick for p. The descent follows enlargement, not containment, so a
// point that went in along a different path is not found; Remove covers
// that case. It reports whether an entry was removed.
func (t *Tree) Delete(p geom.Point) bool {
	return t.deleteFrom(t.chooseLeaf(p), p)
}

// Remove is Delete with a containment search: every subtree whose box holds
// p is visited until a leaf storing p is found.
func (t *Tree) Remove(p geom.Point) bool {
	leaf := t.findLeaf(t.root, p)
	if leaf == nilNode {
		return false
	}
	return t.deleteFrom(leaf, p)
}

func (t *Tree) findLeaf(idx int, p geom.Point) int {
	n := &t.nodes[idx]
	if n.leaf {
		for _, e := range n.entries {
			if e.Equal(p) {
				return idx
			}
		}
		return nilNode
	}
	for _, c := range n.children {
		child := &t.nodes[c]
		if child.empty || !child.mbr.Contains(p) {
			continue
		}
		if leaf := t.findLeaf(c, p); leaf != nilNode {
			return leaf
		}
	}
	return nilNode
}

func (t *Tree) deleteFrom(leaf int, p geom.Point) bool {
	n := &t.nodes[leaf]
	pos := -1
	for i, e := range n.entries {
		if e.Equal(p) {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	n.entries = append(n.entries[:pos], n.entries[pos+1:]...)
	t.len--

	t.adjustPath(t.condense(leaf))
	return true
}

// condense handles an underfull leaf after a removal: the leaf is merged
// into a neighbour, possibly followed by its parent one level up, or the
// root collapses onto its only child. It returns the deepest node on the
// changed path that is still part of the tree.
func (t *Tree) condense(leaf int) int {
	if leaf == t.root || !t.isUnderfull(leaf) {
		return leaf
	}

	parent := t.nodes[leaf].parent
	if sibling := t.sibling(parent, leaf); sibling != nilNode && t.canAbsorb(sibling, leaf) {
		t.merge(sibling, leaf, parent)
		live := sibling

		if parent != t.root && t.isUnderfull(parent) {
			grandparent := t.nodes[parent].parent
			if uncle := t.sibling(grandparent, parent); uncle != nilNode && t.canAbsorb(uncle, parent) {
				t.merge(uncle, parent, grandparent)
				live = uncle
			}
		}
		return live
	}

	root := &t.nodes[t.root]
	if !root.leaf && len(root.children) == 1 && t.isUnderfull(t.root) {
		old := t.root
		t.root = root.children[0]
		t.nodes[t.root].parent = nilNode
		t.release(old)
	}
	return leaf
}

// sibling returns the child before idx in parent, or the one after when idx
// comes first. Parents with fewer than the minimum children have none.
func (t *Tree) sibling(parent, idx int) int {
	kids := t.nodes[parent].children
	if len(kids) < t.minEntries {
		return nilNode
	}
	switch pos := indexOf(kids, idx); {
	case pos > 0:
		return kids[pos-1]
	case pos == 0 && len(kids) > 1:
		return kids[1]
	default:
		return nilNode
	}
}

// canAbsorb reports whether into is not full and can take every item of
// from without overflowing.
func (t *Tree) canAbsorb(into, from int) bool {
	return !t.isFull(into) && t.count(into)+t.count(from) <= t.maxEntries
}

// merge moves every item of from into into and drops from out of parent.
func (t *Tree) merge(into, from, parent int) {
	src := t.nodes[from]
	if src.leaf {
		t.nodes[into].entries = append(t.nodes[into].entries, src.entries...)
	} else {
		for _, c := range src.children {
			t.nodes[c].parent = into
		}
		t.nodes[into].children = append(t.nodes[into].children, src.children...)
	}
	t.recompute(into)
	t.removeChild(parent, from)
	t.release(from)
}
