package rtree

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/sidx/pkg/geom"
)

func pts(coords ...float64) []geom.Point {
	points := make([]geom.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, geom.Point{X: coords[i], Y: coords[i+1]})
	}
	return points
}

func leaves(tr *Tree) [][]geom.Point {
	var out [][]geom.Point
	tr.Walk(func(v NodeView) bool {
		if v.Leaf {
			out = append(out, v.Entries)
		}
		return true
	})
	return out
}

func TestNewTree(t *testing.T) {
	tr := New()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 1, tr.Height())
	assert.Equal(t, MaxEntries, tr.MaxEntries())
	assert.Equal(t, MinEntries, tr.MinEntries())
	_, ok := tr.Bounds()
	assert.False(t, ok)
	assert.Empty(t, tr.Points())
	checkInvariants(t, tr, true)
}

func TestWithMaxEntries(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		wantMax int
		wantMin int
	}{
		{name: "test_default_fanout", max: 4, wantMax: 4, wantMin: 2},
		{name: "test_odd_fanout", max: 5, wantMax: 5, wantMin: 2},
		{name: "test_wide_fanout", max: 16, wantMax: 16, wantMin: 8},
		{name: "test_clamped_two", max: 2, wantMax: 3, wantMin: 1},
		{name: "test_clamped_negative", max: -1, wantMax: 3, wantMin: 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := New(WithMaxEntries(test.max))
			assert.Equal(t, test.wantMax, tr.MaxEntries())
			assert.Equal(t, test.wantMin, tr.MinEntries())
		})
	}
}

func TestInsertSplitsRoot(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 10, 10, 11, 11))
	checkInvariants(t, tr, true)

	require.Equal(t, 5, tr.Len())
	require.Equal(t, 2, tr.Height())
	assert.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 1),
		pts(2, 2, 10, 10, 11, 11),
	}, leaves(tr))

	bounds, ok := tr.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.NewRect(geom.Point{}, geom.Point{X: 11, Y: 11}), bounds)
}

func TestInsertFourthPointSplits(t *testing.T) {
	tr := buildTree(pts(3, 0, 2, 0, 1, 0, 0, 0))
	checkInvariants(t, tr, true)

	// the leaf splits as soon as it holds the maximum.
	assert.Equal(t, 2, tr.Height())
	assert.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 0),
		pts(2, 0, 3, 0),
	}, leaves(tr))
}

func TestInsertDuplicates(t *testing.T) {
	tr := New()
	p := geom.Point{X: 7, Y: 7}
	for i := 0; i < 20; i++ {
		tr.Insert(p)
	}
	checkInvariants(t, tr, true)
	assert.Equal(t, 20, tr.Len())
	assert.Len(t, tr.Search(geom.PointRect(p)), 20)
}

func TestInsertRandomKeepsInvariants(t *testing.T) {
	for _, max := range []int{3, 4, 5, 8, 16} {
		tr := New(WithMaxEntries(max))
		points := randomPoints(600, 1000)
		for i, p := range points {
			tr.Insert(p)
			if i%50 == 0 {
				checkInvariants(t, tr, true)
			}
		}
		checkInvariants(t, tr, true)
		assert.Equal(t, multiset(points), multiset(tr.Points()), "max entries %d", max)
	}
}

func TestSearch(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 10, 10, 11, 11))

	tests := []struct {
		name   string
		rect   geom.Rect
		expect []geom.Point
	}{
		{
			name:   "test_lower_cluster",
			rect:   geom.NewRect(geom.Point{}, geom.Point{X: 2, Y: 2}),
			expect: pts(0, 0, 1, 1, 2, 2),
		},
		{
			name:   "test_bounds_inclusive",
			rect:   geom.NewRect(geom.Point{X: 10, Y: 10}, geom.Point{X: 11, Y: 11}),
			expect: pts(10, 10, 11, 11),
		},
		{
			name:   "test_degenerate_rect",
			rect:   geom.PointRect(geom.Point{X: 1, Y: 1}),
			expect: pts(1, 1),
		},
		{
			name:   "test_no_match",
			rect:   geom.NewRect(geom.Point{X: 3, Y: 3}, geom.Point{X: 9, Y: 9}),
			expect: []geom.Point{},
		},
		{
			name:   "test_everything",
			rect:   geom.NewRect(geom.Point{X: -100, Y: -100}, geom.Point{X: 100, Y: 100}),
			expect: pts(0, 0, 1, 1, 2, 2, 10, 10, 11, 11),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := tr.Search(test.rect)
			require.NotNil(t, got)
			assert.Equal(t, multiset(test.expect), multiset(got))
		})
	}
}

func TestSearchEmptyTree(t *testing.T) {
	got := New().Search(geom.NewRect(geom.Point{X: -1, Y: -1}, geom.Point{X: 1, Y: 1}))
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchMatchesBruteForce(t *testing.T) {
	points := randomPoints(800, 500)
	tr := buildTree(points, WithMaxEntries(6))

	for i := 0; i < 100; i++ {
		r := randomRect(500)
		var expect []geom.Point
		for _, p := range points {
			if r.Contains(p) {
				expect = append(expect, p)
			}
		}
		assert.Equal(t, multiset(expect), multiset(tr.Search(r)), "rect %v", r)
	}
}

func TestScanStopsEarly(t *testing.T) {
	tr := buildTree(randomPoints(200, 100))
	all := geom.NewRect(geom.Point{}, geom.Point{X: 10, Y: 10})

	var calls int
	tr.Scan(all, func(geom.Point) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, 3, calls)
}

func TestNearest(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 10, 10, 11, 11))

	tests := []struct {
		name   string
		query  geom.Point
		expect geom.Point
	}{
		{name: "test_near_stored", query: geom.Point{X: 1.1, Y: 1.1}, expect: geom.Point{X: 1, Y: 1}},
		{name: "test_exact", query: geom.Point{X: 10, Y: 10}, expect: geom.Point{X: 10, Y: 10}},
		{name: "test_far_away", query: geom.Point{X: 100, Y: 90}, expect: geom.Point{X: 11, Y: 11}},
		{name: "test_negative", query: geom.Point{X: -5, Y: -3}, expect: geom.Point{}},
		{name: "test_between_clusters", query: geom.Point{X: 7, Y: 7}, expect: geom.Point{X: 10, Y: 10}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := tr.Nearest(test.query)
			require.True(t, ok)
			assert.Equal(t, test.expect, got)
		})
	}
}

func TestNearestEmptyTree(t *testing.T) {
	got, ok := New().Nearest(geom.Point{X: 3, Y: 4})
	assert.False(t, ok)
	assert.Equal(t, geom.Point{}, got)
}

func TestNearestFarQuery(t *testing.T) {
	tests := []struct {
		name   string
		points []geom.Point
		query  geom.Point
		expect []geom.Point
	}{
		{
			name:   "test_squares_overflow",
			points: pts(0, 0, 1e200, 0),
			query:  geom.Point{X: 1e200, Y: 1e200},
			expect: pts(1e200, 0),
		},
		{
			name:   "test_single_axis_overflow",
			points: pts(0, 0, -1e155, 0),
			query:  geom.Point{X: 1e155, Y: 0},
			expect: pts(0, 0),
		},
		{
			name:   "test_every_distance_infinite",
			points: pts(-1e308, -1e308, -1e308, 0),
			query:  geom.Point{X: 1e308, Y: 1e308},
			expect: pts(-1e308, -1e308, -1e308, 0),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := buildTree(test.points)

			got, ok := tr.Nearest(test.query)
			require.True(t, ok, "a non-empty tree always has a nearest point")
			assert.Contains(t, test.expect, got)

			knn := tr.KNearest(test.query, len(test.points))
			assert.Len(t, knn, len(test.points))
			assert.ElementsMatch(t, test.points, knn)
		})
	}
}

func bruteDistances(points []geom.Point, q geom.Point) []float64 {
	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = geom.EuclideanDistance(q, p)
	}
	sort.Float64s(dist)
	return dist
}

func TestNearestMatchesBruteForce(t *testing.T) {
	points := randomPoints(700, 1000)
	tr := buildTree(points)

	for _, q := range randomPoints(100, 1200) {
		got, ok := tr.Nearest(q)
		require.True(t, ok)
		assert.InDelta(t, bruteDistances(points, q)[0], geom.EuclideanDistance(q, got), 1e-9, "query %v", q)
	}
}

func TestKNearest(t *testing.T) {
	points := randomPoints(500, 1000)
	tr := buildTree(points, WithMaxEntries(5))

	for _, k := range []int{1, 3, 10, 50} {
		for _, q := range randomPoints(20, 1000) {
			got := tr.KNearest(q, k)
			require.Len(t, got, k)
			expect := bruteDistances(points, q)[:k]
			for i, p := range got {
				assert.InDelta(t, expect[i], geom.EuclideanDistance(q, p), 1e-9, "k %d query %v rank %d", k, q, i)
			}
		}
	}
}

func TestKNearestEdges(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2))

	assert.Empty(t, tr.KNearest(geom.Point{}, 0))
	assert.Empty(t, tr.KNearest(geom.Point{}, -2))
	assert.Empty(t, New().KNearest(geom.Point{}, 3))

	got := tr.KNearest(geom.Point{X: 5, Y: 5}, 10)
	assert.Equal(t, pts(2, 2, 1, 1, 0, 0), got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 10, 10, 11, 11))

	require.True(t, tr.Delete(geom.Point{X: 11, Y: 11}))
	checkInvariants(t, tr, false)
	before := snapshot(tr)

	assert.False(t, tr.Delete(geom.Point{X: 11, Y: 11}))
	assert.False(t, tr.Remove(geom.Point{X: 11, Y: 11}))
	assert.Equal(t, before, snapshot(tr))
	assert.Equal(t, 4, tr.Len())
}

func TestDeleteMissing(t *testing.T) {
	tr := New()
	assert.False(t, tr.Delete(geom.Point{X: 1, Y: 1}))
	assert.False(t, tr.Remove(geom.Point{X: 1, Y: 1}))

	tr = buildTree(pts(0, 0, 1, 1, 2, 2))
	before := snapshot(tr)
	assert.False(t, tr.Delete(geom.Point{X: 0.5, Y: 0.5}))
	assert.False(t, tr.Remove(geom.Point{X: 0.5, Y: 0.5}))
	assert.Equal(t, before, snapshot(tr))
}

func TestDeleteRemovesOneDuplicate(t *testing.T) {
	p := geom.Point{X: 2, Y: 3}
	tr := buildTree([]geom.Point{p, p, p})

	require.True(t, tr.Delete(p))
	assert.Equal(t, 2, tr.Len())
	assert.Len(t, tr.Search(geom.PointRect(p)), 2)
}

func TestDeleteFollowsInsertPath(t *testing.T) {
	// (2,2) lies inside the box of the first leaf but was stored in the
	// second, so the insertion descent misses it.
	tr := buildTree(pts(0, 0, 1, 5, 2, 2, 9, 20, 2, 0))
	require.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 5, 2, 0),
		pts(2, 2, 9, 20),
	}, leaves(tr))

	assert.False(t, tr.Delete(geom.Point{X: 2, Y: 2}))
	assert.Equal(t, 5, tr.Len())

	require.True(t, tr.Remove(geom.Point{X: 2, Y: 2}))
	checkInvariants(t, tr, false)
	assert.Equal(t, 4, tr.Len())

	// the emptied leaf merged into its neighbour; the root keeps one child.
	assert.Equal(t, [][]geom.Point{pts(0, 0, 1, 5, 2, 0, 9, 20)}, leaves(tr))
	assert.Equal(t, 2, tr.Height())
	assert.Empty(t, tr.Search(geom.PointRect(geom.Point{X: 2, Y: 2})))
}

func TestDeleteLeavesUnderfullLeaf(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 0.5, 0.5))
	require.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 1, 0.5, 0.5),
		pts(2, 2, 3, 3),
		pts(4, 4, 5, 5),
	}, leaves(tr))

	require.True(t, tr.Delete(geom.Point{X: 2, Y: 2}))
	require.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 1, 0.5, 0.5, 3, 3),
		pts(4, 4, 5, 5),
	}, leaves(tr))

	// the only neighbour is full, so the last leaf stays below the minimum.
	require.True(t, tr.Delete(geom.Point{X: 4, Y: 4}))
	rep := checkInvariants(t, tr, false)
	assert.Equal(t, 1, rep.underfull)
	assert.Equal(t, 5, tr.Len())
	assert.Equal(t, [][]geom.Point{
		pts(0, 0, 1, 1, 0.5, 0.5, 3, 3),
		pts(5, 5),
	}, leaves(tr))

	got, ok := tr.Nearest(geom.Point{X: 4.6, Y: 4.6})
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 5, Y: 5}, got)
}

func TestDeleteEmptiesLeaf(t *testing.T) {
	tr := buildTree(pts(0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 0.5, 0.5))
	require.True(t, tr.Delete(geom.Point{X: 2, Y: 2}))
	require.True(t, tr.Delete(geom.Point{X: 4, Y: 4}))
	require.True(t, tr.Delete(geom.Point{X: 5, Y: 5}))
	checkInvariants(t, tr, false)

	// an empty leaf must not pull the root box towards the origin.
	bounds, ok := tr.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.NewRect(geom.Point{}, geom.Point{X: 3, Y: 3}), bounds)

	got, ok := tr.Nearest(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 3, Y: 3}, got)
}

func TestDeleteCondense(t *testing.T) {
	tests := []struct {
		name         string
		tree         shape
		remove       geom.Point
		height       int
		rootChildren int
		leaves       [][]geom.Point
	}{
		{
			name:         "test_root_collapses_onto_leaf",
			tree:         innerShape(leafShape(0, 0, 1, 1)),
			remove:       geom.Point{X: 1, Y: 1},
			height:       1,
			rootChildren: 0,
			leaves:       [][]geom.Point{pts(0, 0)},
		},
		{
			name:         "test_root_collapses_onto_internal",
			tree:         innerShape(innerShape(leafShape(0, 0, 1, 1))),
			remove:       geom.Point{X: 0, Y: 0},
			height:       2,
			rootChildren: 1,
			leaves:       [][]geom.Point{pts(1, 1)},
		},
		{
			name: "test_leaf_merge_only",
			tree: innerShape(
				leafShape(0, 0, 1, 1),
				leafShape(2, 2, 3, 3, 4, 4),
				leafShape(8, 8, 9, 9),
			),
			remove:       geom.Point{X: 1, Y: 1},
			height:       2,
			rootChildren: 2,
			leaves:       [][]geom.Point{pts(2, 2, 3, 3, 4, 4, 0, 0), pts(8, 8, 9, 9)},
		},
		{
			name: "test_parent_merges_into_uncle",
			tree: innerShape(
				innerShape(leafShape(0, 0, 1, 1), leafShape(2, 2, 3, 3, 4, 4)),
				innerShape(leafShape(10, 10, 11, 11), leafShape(12, 12, 13, 13)),
			),
			remove:       geom.Point{X: 1, Y: 1},
			height:       3,
			rootChildren: 1,
			leaves: [][]geom.Point{
				pts(10, 10, 11, 11),
				pts(12, 12, 13, 13),
				pts(2, 2, 3, 3, 4, 4, 0, 0),
			},
		},
		{
			name: "test_full_uncle_keeps_parent",
			tree: innerShape(
				innerShape(leafShape(0, 0, 1, 1), leafShape(2, 2, 3, 3, 4, 4)),
				innerShape(leafShape(10, 10, 11, 11), leafShape(12, 12, 13, 13), leafShape(14, 14, 15, 15), leafShape(16, 16, 17, 17)),
			),
			remove:       geom.Point{X: 1, Y: 1},
			height:       3,
			rootChildren: 2,
			leaves: [][]geom.Point{
				pts(2, 2, 3, 3, 4, 4, 0, 0),
				pts(10, 10, 11, 11),
				pts(12, 12, 13, 13),
				pts(14, 14, 15, 15),
				pts(16, 16, 17, 17),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := assemble(test.tree)
			checkInvariants(t, tr, false)
			before, height := tr.Len(), tr.Height()

			require.True(t, tr.Delete(test.remove))
			checkInvariants(t, tr, false)

			assert.Equal(t, before-1, tr.Len())
			assert.Equal(t, test.height, tr.Height(), "height was %d", height)
			assert.Len(t, tr.nodes[tr.root].children, test.rootChildren)
			assert.Equal(t, test.leaves, leaves(tr))
			assert.Empty(t, tr.Search(geom.PointRect(test.remove)))
		})
	}
}

func TestRemoveAllRandom(t *testing.T) {
	for _, max := range []int{3, 4, 6, 9} {
		points := randomPoints(400, 300)
		tr := buildTree(points, WithMaxEntries(max))

		var underfull int
		for i, p := range points {
			require.True(t, tr.Remove(p), "max entries %d point %v", max, p)
			require.Equal(t, len(points)-i-1, tr.Len())
			if i%20 == 0 {
				underfull += checkInvariants(t, tr, false).underfull
			}
		}
		checkInvariants(t, tr, false)
		assert.Empty(t, tr.Points())
		_, ok := tr.Nearest(geom.Point{})
		assert.False(t, ok)
		t.Logf("max entries %d: %d underfull nodes seen while draining", max, underfull)
	}
}

func TestDeleteRandom(t *testing.T) {
	points := randomPoints(400, 300)
	tr := buildTree(points)
	left := multiset(points)

	var misses int
	for _, p := range points {
		if !tr.Delete(p) {
			misses++
			continue
		}
		left[p]--
		if left[p] == 0 {
			delete(left, p)
		}
	}
	checkInvariants(t, tr, false)
	assert.Equal(t, misses, tr.Len())
	assert.Equal(t, left, multiset(tr.Points()))
	t.Logf("%d of %d points not reachable along the insert path", misses, len(points))

	for p := range left {
		for left[p] > 0 {
			require.True(t, tr.Remove(p))
			left[p]--
		}
	}
	assert.Equal(t, 0, tr.Len())
}

func TestInsertAfterDelete(t *testing.T) {
	points := randomPoints(300, 200)
	tr := buildTree(points)
	for _, p := range points[:200] {
		require.True(t, tr.Remove(p))
	}
	more := randomPoints(300, 200)
	for _, p := range more {
		tr.Insert(p)
	}
	checkInvariants(t, tr, false)
	assert.Equal(t, multiset(append(append([]geom.Point{}, points[200:]...), more...)), multiset(tr.Points()))
}

type ySplit struct{}

func (ySplit) Split(bounds []geom.Rect) (left, right []int) {
	order := make([]int, len(bounds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return bounds[order[i]].Lower.Y < bounds[order[j]].Lower.Y
	})
	return order[:len(order)/2], order[len(order)/2:]
}

type brokenSplit struct {
	left, right []int
}

func (s brokenSplit) Split([]geom.Rect) (left, right []int) {
	return s.left, s.right
}

func TestCustomSplitter(t *testing.T) {
	tr := buildTree(pts(0, 3, 1, 2, 2, 1, 3, 0), WithSplitter(ySplit{}))
	checkInvariants(t, tr, true)
	assert.Equal(t, [][]geom.Point{
		pts(3, 0, 2, 1),
		pts(1, 2, 0, 3),
	}, leaves(tr))

	points := randomPoints(300, 500)
	tr = buildTree(points, WithSplitter(ySplit{}))
	checkInvariants(t, tr, true)
	assert.Equal(t, multiset(points), multiset(tr.Points()))
}

func TestInvalidSplitFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		split brokenSplit
	}{
		{name: "test_empty_group", split: brokenSplit{left: []int{0, 1, 2, 3}}},
		{name: "test_duplicate_index", split: brokenSplit{left: []int{0, 0}, right: []int{1, 2}}},
		{name: "test_out_of_range", split: brokenSplit{left: []int{0, 1}, right: []int{2, 9}}},
		{name: "test_missing_index", split: brokenSplit{left: []int{0}, right: []int{1}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := buildTree(pts(3, 0, 2, 0, 1, 0, 0, 0), WithSplitter(test.split))
			checkInvariants(t, tr, true)
			assert.Equal(t, [][]geom.Point{
				pts(0, 0, 1, 0),
				pts(2, 0, 3, 0),
			}, leaves(tr))
		})
	}
}

func TestWalk(t *testing.T) {
	tr := buildTree(randomPoints(100, 1000))
	height := tr.Height()

	var (
		visited int
		stored  int
	)
	tr.Walk(func(v NodeView) bool {
		visited++
		if v.Leaf {
			assert.Equal(t, height-1, v.Level)
			assert.Zero(t, v.Children)
			stored += len(v.Entries)
		} else {
			assert.Empty(t, v.Entries)
			assert.NotZero(t, v.Children)
		}
		return true
	})
	assert.Equal(t, tr.Len(), stored)

	var stopped int
	tr.Walk(func(NodeView) bool {
		stopped++
		return false
	})
	assert.Equal(t, 1, stopped)
	assert.Greater(t, visited, 1)
}

func TestWalkCopiesEntries(t *testing.T) {
	tr := buildTree(pts(1, 1, 2, 2))
	tr.Walk(func(v NodeView) bool {
		for i := range v.Entries {
			v.Entries[i] = geom.Point{X: math.NaN()}
		}
		return true
	})
	assert.Equal(t, pts(1, 1, 2, 2), tr.Points())
}

func BenchmarkInsert(b *testing.B) {
	points := randomPoints(b.N, 100000)
	tr := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Insert(points[i])
	}
}

func BenchmarkSearch(b *testing.B) {
	tr := buildTree(randomPoints(100000, 100000))
	rects := make([]geom.Rect, 1024)
	for i := range rects {
		rects[i] = randomRect(100000)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Search(rects[i%len(rects)])
	}
}

func BenchmarkNearest(b *testing.B) {
	tr := buildTree(randomPoints(100000, 100000))
	queries := randomPoints(1024, 100000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Nearest(queries[i%len(queries)])
	}
}
