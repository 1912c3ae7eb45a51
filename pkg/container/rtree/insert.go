package rtree

import (
	"github.com/go-sod/sidx/pkg/geom"
)

// Insert adds p to the tree. Duplicates are stored as separate entries.
func (t *Tree) Insert(p geom.Point) {
	if t.isFull(t.root) {
		t.growRoot()
	}

	leaf := t.chooseLeaf(p)
	t.nodes[leaf].entries = append(t.nodes[leaf].entries, p)
	t.len++

	if t.isFull(leaf) {
		t.split(leaf)
	}
	t.adjustPath(leaf)
}

// growRoot wraps a full root in a new internal root and splits it, so the
// top of the tree never overflows.
func (t *Tree) growRoot() {
	old := t.root
	t.root = t.alloc(false)
	t.setChildren(t.root, []int{old})
	t.split(old)
	t.recompute(t.root)
}

// chooseLeaf descends from the root, at each level taking the child whose
// box needs the least enlargement to cover p. Ties go to the earlier child.
func (t *Tree) chooseLeaf(p geom.Point) int {
	idx := t.root
	for !t.nodes[idx].leaf {
		children := t.nodes[idx].children
		best := children[0]
		bestEnlargement := t.nodes[best].mbr.Enlargement(p)
		for _, c := range children[1:] {
			if e := t.nodes[c].mbr.Enlargement(p); e < bestEnlargement {
				best, bestEnlargement = c, e
			}
		}
		idx = best
	}
	return idx
}
