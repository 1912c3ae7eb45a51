package rtree

import (
	"sort"

	"github.com/go-sod/sidx/pkg/geom"
)

// Splitter partitions the items of an overfull node, given by their
// bounding boxes, into two groups of indices. Both groups must be non-empty
// and together cover every index exactly once; otherwise the tree falls
// back to AxisSplit.
type Splitter interface {
	Split(bounds []geom.Rect) (left, right []int)
}

// AxisSplit sorts items by the lower x coordinate of their boxes and cuts
// the list in half, the first half taking the smaller share. Only the x axis
// is considered and overlap is not minimized.
type AxisSplit struct{}

func (AxisSplit) Split(bounds []geom.Rect) (left, right []int) {
	order := make([]int, len(bounds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return bounds[order[i]].Lower.X < bounds[order[j]].Lower.X
	})
	mid := len(order) / 2
	return order[:mid], order[mid:]
}

func (t *Tree) partition(bounds []geom.Rect) (left, right []int) {
	left, right = t.splitter.Split(bounds)
	if validPartition(len(bounds), left, right) {
		return left, right
	}
	return AxisSplit{}.Split(bounds)
}

func validPartition(n int, left, right []int) bool {
	if len(left) == 0 || len(right) == 0 || len(left)+len(right) != n {
		return false
	}
	seen := make([]bool, n)
	for _, group := range [][]int{left, right} {
		for _, i := range group {
			if i < 0 || i >= n || seen[i] {
				return false
			}
			seen[i] = true
		}
	}
	return true
}

// split divides an overfull node. The root keeps its index and receives two
// new children. Any other node keeps the first group and a new sibling,
// placed right after it in the parent, takes the second; a parent that
// becomes full is split in turn unless it is the root.
func (t *Tree) split(idx int) {
	n := t.nodes[idx]

	var bounds []geom.Rect
	if n.leaf {
		bounds = make([]geom.Rect, len(n.entries))
		for i, p := range n.entries {
			bounds[i] = geom.PointRect(p)
		}
	} else {
		bounds = make([]geom.Rect, len(n.children))
		for i, c := range n.children {
			bounds[i] = t.nodes[c].mbr
		}
	}
	left, right := t.partition(bounds)

	if idx == t.root {
		a, b := t.alloc(n.leaf), t.alloc(n.leaf)
		t.fill(a, n, left)
		t.fill(b, n, right)
		root := &t.nodes[idx]
		root.leaf = false
		root.entries = nil
		t.setChildren(idx, []int{a, b})
		t.recompute(a)
		t.recompute(b)
		t.recompute(idx)
		return
	}

	sibling := t.alloc(n.leaf)
	t.fill(idx, n, left)
	t.fill(sibling, n, right)
	t.recompute(idx)
	t.recompute(sibling)

	// Only the root lacks a parent, and growRoot attaches a full root
	// below a new one before splitting it.
	parent := t.nodes[idx].parent
	t.insertChildAfter(parent, idx, sibling)
	if parent != t.root && t.isFull(parent) {
		t.split(parent)
	}
}

// fill gives idx the items of src selected by group, in group order.
func (t *Tree) fill(idx int, src node, group []int) {
	if src.leaf {
		entries := make([]geom.Point, 0, t.maxEntries+1)
		for _, i := range group {
			entries = append(entries, src.entries[i])
		}
		t.nodes[idx].entries = entries
		return
	}
	children := make([]int, 0, t.maxEntries+1)
	for _, i := range group {
		children = append(children, src.children[i])
	}
	t.setChildren(idx, children)
}
