package rtree

import (
	"github.com/go-sod/sidx/pkg/geom"
)

// Search returns every stored point inside r, bounds included, in leaf
// order. The result is empty, never nil, when nothing matches.
func (t *Tree) Search(r geom.Rect) []geom.Point {
	result := make([]geom.Point, 0)
	t.Scan(r, func(p geom.Point) bool {
		result = append(result, p)
		return true
	})
	return result
}

// Scan calls iter for every stored point inside r until iter returns false.
func (t *Tree) Scan(r geom.Rect, iter func(p geom.Point) bool) {
	t.scan(t.root, r, iter)
}

func (t *Tree) scan(idx int, r geom.Rect, iter func(p geom.Point) bool) bool {
	n := &t.nodes[idx]
	if n.empty || !n.mbr.Intersects(r) {
		return true
	}
	if n.leaf {
		for _, e := range n.entries {
			if r.Contains(e) && !iter(e) {
				return false
			}
		}
		return true
	}
	for _, c := range n.children {
		if !t.scan(c, r, iter) {
			return false
		}
	}
	return true
}
