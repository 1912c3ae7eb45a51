package rtree

import "github.com/go-sod/sidx/pkg/geom"

// NodeView is a read-only snapshot of one node handed out by Walk.
type NodeView struct {
	Level    int
	Leaf     bool
	MBR      geom.Rect
	Entries  []geom.Point
	Children int
}

// Walk visits nodes depth-first, parents before children, starting at the
// root on level 0. It stops as soon as fn returns false.
func (t *Tree) Walk(fn func(v NodeView) bool) {
	t.walk(t.root, 0, fn)
}

func (t *Tree) walk(idx, level int, fn func(v NodeView) bool) bool {
	n := &t.nodes[idx]
	v := NodeView{
		Level:    level,
		Leaf:     n.leaf,
		MBR:      n.mbr,
		Children: len(n.children),
	}
	if n.leaf {
		v.Entries = append([]geom.Point(nil), n.entries...)
	}
	if !fn(v) {
		return false
	}
	for _, c := range n.children {
		if !t.walk(c, level+1, fn) {
			return false
		}
	}
	return true
}
