// Package rtree implements an in-memory R-tree over two-dimensional points.
//
// Nodes live in an arena addressed by index and keep a parent index, so
// walking from a leaf to the root never searches the tree. A Tree is not
// safe for concurrent use; callers serialize access.
package rtree

import (
	"github.com/go-sod/sidx/pkg/geom"
)

const (
	// MaxEntries is the default maximum number of points in a leaf or
	// children in an internal node.
	MaxEntries = 4
	// MinEntries is the minimum fan-out of every node except the root.
	MinEntries = MaxEntries / 2

	minMaxEntries = 3
)

type Option func(*Tree)

// WithMaxEntries sets the node fan-out. Values below 3 are raised to 3.
func WithMaxEntries(n int) Option {
	return func(t *Tree) {
		if n < minMaxEntries {
			n = minMaxEntries
		}
		t.maxEntries = n
		t.minEntries = n / 2
	}
}

// WithSplitter replaces the default AxisSplit strategy.
func WithSplitter(s Splitter) Option {
	return func(t *Tree) {
		if s != nil {
			t.splitter = s
		}
	}
}

// New returns an empty tree whose root is an empty leaf.
func New(opts ...Option) *Tree {
	t := &Tree{
		maxEntries: MaxEntries,
		minEntries: MinEntries,
		splitter:   AxisSplit{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = t.alloc(true)
	return t
}

type Tree struct {
	nodes []node
	free  []int
	root  int
	len   int

	maxEntries int
	minEntries int
	splitter   Splitter
}

// Len returns the number of stored points.
func (t *Tree) Len() int {
	return t.len
}

func (t *Tree) MaxEntries() int {
	return t.maxEntries
}

func (t *Tree) MinEntries() int {
	return t.minEntries
}

// Height returns the number of levels; an empty tree has height 1.
func (t *Tree) Height() int {
	h := 1
	for idx := t.root; !t.nodes[idx].leaf && len(t.nodes[idx].children) > 0; idx = t.nodes[idx].children[0] {
		h++
	}
	return h
}

// Bounds returns the box around every stored point, false for an empty tree.
func (t *Tree) Bounds() (geom.Rect, bool) {
	root := &t.nodes[t.root]
	return root.mbr, !root.empty
}

// Points returns every stored point in leaf order.
func (t *Tree) Points() []geom.Point {
	points := make([]geom.Point, 0, t.len)
	t.Walk(func(v NodeView) bool {
		points = append(points, v.Entries...)
		return true
	})
	return points
}
