package rtree

import (
	"math"

	"github.com/go-sod/sidx/pkg/geom"
	"github.com/go-sod/sidx/pkg/pqueue"
)

// Nearest returns the stored point closest to q by Euclidean distance.
// On an empty tree it returns the zero point and false. Distances that
// overflow to +Inf still yield a result; nothing is pruned before the first
// candidate.
func (t *Tree) Nearest(q geom.Point) (geom.Point, bool) {
	s := &nearestSearch{tree: t, q: q, dist: math.Inf(1)}
	s.visit(t.root)
	return s.best, s.found
}

type nearestSearch struct {
	tree  *Tree
	q     geom.Point
	best  geom.Point
	dist  float64
	found bool
}

func (s *nearestSearch) visit(idx int) {
	n := &s.tree.nodes[idx]
	if n.empty || s.prune(n.mbr.MinDist(s.q)) {
		return
	}
	if n.leaf {
		for _, e := range n.entries {
			if d := geom.EuclideanDistance(s.q, e); !s.found || d < s.dist {
				s.best, s.dist, s.found = e, d, true
			}
		}
		return
	}

	children := s.tree.byMinDist(n.children, s.q)
	for i := 0; i < children.Len(); i++ {
		c, d := children.Seek(i)
		if s.prune(d) {
			break
		}
		s.visit(c.(int))
	}
}

func (s *nearestSearch) prune(minDist float64) bool {
	return s.found && minDist >= s.dist
}

// KNearest returns up to k stored points ordered by ascending Euclidean
// distance from q.
func (t *Tree) KNearest(q geom.Point, k int) []geom.Point {
	if k <= 0 {
		return []geom.Point{}
	}
	s := &kNearestSearch{
		tree:  t,
		q:     q,
		found: pqueue.New(pqueue.WithCap(uint(k))),
	}
	s.visit(t.root)

	points := make([]geom.Point, 0, s.found.Len())
	for _, p := range s.found.PopAll() {
		points = append(points, p.(geom.Point))
	}
	return points
}

type kNearestSearch struct {
	tree  *Tree
	q     geom.Point
	found *pqueue.Queue
}

// beats reports whether something at distance d may still enter the
// result. Until k candidates are held everything does, even at +Inf.
func (s *kNearestSearch) beats(d float64) bool {
	if !s.found.Full() {
		return true
	}
	_, worst := s.found.Seek(s.found.Len() - 1)
	return d < worst
}

func (s *kNearestSearch) visit(idx int) {
	n := &s.tree.nodes[idx]
	if n.empty || !s.beats(n.mbr.MinDist(s.q)) {
		return
	}
	if n.leaf {
		for _, e := range n.entries {
			if d := geom.EuclideanDistance(s.q, e); s.beats(d) {
				s.found.Push(e, d)
			}
		}
		return
	}

	children := s.tree.byMinDist(n.children, s.q)
	for i := 0; i < children.Len(); i++ {
		c, d := children.Seek(i)
		if !s.beats(d) {
			break
		}
		s.visit(c.(int))
	}
}

// byMinDist orders the non-empty children by the distance from q to their
// boxes.
func (t *Tree) byMinDist(children []int, q geom.Point) *pqueue.Queue {
	queue := pqueue.New(pqueue.WithOrderAsc())
	for _, c := range children {
		if t.nodes[c].empty {
			continue
		}
		queue.Push(c, t.nodes[c].mbr.MinDist(q))
	}
	return queue
}
