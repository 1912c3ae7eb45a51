package rtree

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"

	"github.com/go-sod/sidx/pkg/geom"
)

type report struct {
	underfull int
}

// checkInvariants walks the whole arena and fails the test on any broken
// structural property. Non-root nodes below the minimum fan-out are only
// counted, unless strictMin is set.
func checkInvariants(t *testing.T, tr *Tree, strictMin bool) report {
	t.Helper()
	var (
		rep        report
		leafDepth  = -1
		reachable  int
		pointCount int
	)

	var visit func(idx, parent, depth int) []geom.Point
	visit = func(idx, parent, depth int) []geom.Point {
		n := tr.nodes[idx]
		reachable++
		if n.parent != parent {
			t.Fatalf("node %d links to parent %d, expected %d\n%s", idx, n.parent, parent, spew.Sdump(n))
		}
		require.LessOrEqualf(t, tr.count(idx), tr.maxEntries, "node %d overflows", idx)
		if idx != tr.root && tr.count(idx) < tr.minEntries {
			rep.underfull++
			if strictMin {
				t.Fatalf("node %d holds %d items, minimum is %d\n%s", idx, tr.count(idx), tr.minEntries, spew.Sdump(n))
			}
		}

		var points []geom.Point
		if n.leaf {
			require.Emptyf(t, n.children, "leaf %d has children", idx)
			if leafDepth < 0 {
				leafDepth = depth
			}
			require.Equalf(t, leafDepth, depth, "leaf %d is not on the leaf level", idx)
			points = append(points, n.entries...)
			pointCount += len(n.entries)
		} else {
			require.Emptyf(t, n.entries, "internal node %d has entries", idx)
			require.NotEmptyf(t, n.children, "internal node %d has no children", idx)
			for _, c := range n.children {
				points = append(points, visit(c, idx, depth+1)...)
			}
		}

		bound, ok := geom.Bound(points...)
		require.Equalf(t, !ok, n.empty, "empty flag of node %d", idx)
		if ok && bound != n.mbr {
			t.Fatalf("mbr of node %d is not tight, got: %v, expected: %v\n%s", idx, n.mbr, bound, spew.Sdump(n))
		}
		return points
	}
	visit(tr.root, nilNode, 0)

	require.Equal(t, tr.Len(), pointCount, "stored point count")
	require.Equal(t, len(tr.nodes), reachable+len(tr.free), "arena slots are leaked")
	return rep
}

func randomPoints(n int, scale uint32) []geom.Point {
	points := make([]geom.Point, n)
	for i := range points {
		points[i] = geom.Point{
			X: float64(fastrand.Uint32n(scale)) / 10,
			Y: float64(fastrand.Uint32n(scale)) / 10,
		}
	}
	return points
}

func randomRect(scale uint32) geom.Rect {
	r, _ := geom.Bound(randomPoints(2, scale)...)
	return r
}

func buildTree(points []geom.Point, opts ...Option) *Tree {
	tr := New(opts...)
	for _, p := range points {
		tr.Insert(p)
	}
	return tr
}

// multiset counts points so results can be compared regardless of order.
func multiset(points []geom.Point) map[geom.Point]int {
	m := make(map[geom.Point]int, len(points))
	for _, p := range points {
		m[p]++
	}
	return m
}

func snapshot(tr *Tree) []NodeView {
	var views []NodeView
	tr.Walk(func(v NodeView) bool {
		views = append(views, v)
		return true
	})
	return views
}

// shape describes a subtree to lay out directly in the arena: a leaf when
// kids is empty.
type shape struct {
	points []geom.Point
	kids   []shape
}

// assemble builds a tree of exactly the given shape, bypassing insertion.
func assemble(sh shape, opts ...Option) *Tree {
	tr := New(opts...)
	var place func(idx int, sh shape)
	place = func(idx int, sh shape) {
		if len(sh.kids) == 0 {
			tr.nodes[idx].entries = append([]geom.Point(nil), sh.points...)
			tr.len += len(sh.points)
			tr.recompute(idx)
			return
		}
		tr.nodes[idx].leaf = false
		kids := make([]int, len(sh.kids))
		for i := range sh.kids {
			kids[i] = tr.alloc(len(sh.kids[i].kids) == 0)
		}
		tr.setChildren(idx, kids)
		for i, k := range kids {
			place(k, sh.kids[i])
		}
		tr.recompute(idx)
	}
	place(tr.root, sh)
	return tr
}

func leafShape(coords ...float64) shape {
	return shape{points: pts(coords...)}
}

func innerShape(kids ...shape) shape {
	return shape{kids: kids}
}
