// Package layer keeps named, independent R-trees and serializes access to
// them for the HTTP and gRPC front-ends.
package layer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/internal/metrics"
	"github.com/go-sod/sidx/pkg/container/rtree"
	"github.com/go-sod/sidx/pkg/geom"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrLayerFull     = errors.New("layer is full")
	ErrEmptyName     = errors.New("layer name is empty")
	ErrNonFinite     = errors.New("coordinates must be finite")
	ErrInvalidRect   = errors.New("rect lower corner exceeds upper corner")
	ErrInvalidRadius = errors.New("radius must be finite and not negative")
)

// Contract for returning the Manager instance
type ProvideFn func() (Manager, error)

// Manager combines the write and read sides of the layer store.
type Manager interface {
	Collector
	Querier
}

// Collector changes the content of layers.
type Collector interface {
	// Insert adds points to the layer, creating it on first use
	Insert(ctx context.Context, name string, points ...geom.Point) error
	// Delete removes one stored entry per given point and returns how many
	// were found
	Delete(ctx context.Context, name string, points ...geom.Point) (int, error)
	// Drop forgets a layer and every point in it
	Drop(ctx context.Context, name string) bool
}

// Querier answers read-only queries.
type Querier interface {
	Search(ctx context.Context, name string, r geom.Rect) ([]geom.Point, error)
	Nearest(ctx context.Context, name string, q geom.Point) (geom.Point, bool, error)
	KNearest(ctx context.Context, name string, q geom.Point, k int) ([]geom.Point, error)
	Within(ctx context.Context, name string, q geom.Point, radius float64, metric geom.DistanceFuncType) ([]geom.Point, error)
	Dump(ctx context.Context, name string, w io.Writer) error
	Stats(ctx context.Context) []Stat
}

// Stat describes one layer.
type Stat struct {
	Name   string     `json:"name"`
	Points int        `json:"points"`
	Height int        `json:"height"`
	Bounds *geom.Rect `json:"bounds,omitempty"`
}

type Options struct {
	maxPoints   int
	maxEntries  int
	exactDelete bool
	splitter    rtree.Splitter
}

type Option func(*manager)

// WithMaxPoints caps every layer; zero means unlimited.
func WithMaxPoints(n int) Option {
	return func(m *manager) {
		m.opts.maxPoints = n
	}
}

func WithMaxEntries(n int) Option {
	return func(m *manager) {
		m.opts.maxEntries = n
	}
}

// WithExactDelete makes Delete search every subtree containing the point
// instead of following the insertion path.
func WithExactDelete(exact bool) Option {
	return func(m *manager) {
		m.opts.exactDelete = exact
	}
}

func WithSplitter(s rtree.Splitter) Option {
	return func(m *manager) {
		m.opts.splitter = s
	}
}

// New return manager
func New(opts ...Option) *manager {
	m := &manager{
		opts:   Options{maxEntries: rtree.MaxEntries},
		layers: map[string]*rtree.Tree{},
	}
	for _, f := range opts {
		f(m)
	}
	return m
}

type manager struct {
	mtx sync.RWMutex

	opts Options
	// trees by layer name
	layers map[string]*rtree.Tree
}

func (m *manager) newTree() *rtree.Tree {
	opts := []rtree.Option{rtree.WithMaxEntries(m.opts.maxEntries)}
	if m.opts.splitter != nil {
		opts = append(opts, rtree.WithSplitter(m.opts.splitter))
	}
	return rtree.New(opts...)
}

func (m *manager) Insert(ctx context.Context, name string, points ...geom.Point) error {
	if name == "" {
		return ErrEmptyName
	}
	for _, p := range points {
		if !p.Finite() {
			return fmt.Errorf("%w: %v", ErrNonFinite, p)
		}
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	tr, ok := m.layers[name]
	if !ok {
		tr = m.newTree()
	}
	if m.opts.maxPoints > 0 && tr.Len()+len(points) > m.opts.maxPoints {
		return fmt.Errorf("%w: %s holds %d of %d points", ErrLayerFull, name, tr.Len(), m.opts.maxPoints)
	}
	if !ok {
		m.layers[name] = tr
		logging.FromContext(ctx).Infof("Created layer %s", name)
	}
	for _, p := range points {
		tr.Insert(p)
	}

	metrics.Record(ctx, name, metrics.MPointsInserted.M(int64(len(points))), metrics.MPointsStored.M(int64(tr.Len())))
	return nil
}

func (m *manager) Delete(ctx context.Context, name string, points ...geom.Point) (int, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	tr, ok := m.layers[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}

	remove := tr.Delete
	if m.opts.exactDelete {
		remove = tr.Remove
	}
	var removed int
	for _, p := range points {
		if remove(p) {
			removed++
		}
	}
	if misses := len(points) - removed; misses > 0 {
		logging.FromContext(ctx).Debugf("Delete on layer %s missed %d of %d points", name, misses, len(points))
	}

	metrics.Record(ctx, name,
		metrics.MPointsRemoved.M(int64(removed)),
		metrics.MDeleteMisses.M(int64(len(points)-removed)),
		metrics.MPointsStored.M(int64(tr.Len())),
	)
	return removed, nil
}

// tree returns the layer under the read lock held by the caller.
func (m *manager) tree(name string) (*rtree.Tree, error) {
	tr, ok := m.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	return tr, nil
}

func (m *manager) Search(ctx context.Context, name string, r geom.Rect) ([]geom.Point, error) {
	if !r.Lower.Finite() || !r.Upper.Finite() {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, r)
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRect, r)
	}
	defer metrics.Since(ctx, name, "search", time.Now())

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tr, err := m.tree(name)
	if err != nil {
		return nil, err
	}
	return tr.Search(r), nil
}

func (m *manager) Nearest(ctx context.Context, name string, q geom.Point) (geom.Point, bool, error) {
	if !q.Finite() {
		return geom.Point{}, false, fmt.Errorf("%w: %v", ErrNonFinite, q)
	}
	defer metrics.Since(ctx, name, "nearest", time.Now())

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tr, err := m.tree(name)
	if err != nil {
		return geom.Point{}, false, err
	}
	p, ok := tr.Nearest(q)
	return p, ok, nil
}

func (m *manager) KNearest(ctx context.Context, name string, q geom.Point, k int) ([]geom.Point, error) {
	if !q.Finite() {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, q)
	}
	defer metrics.Since(ctx, name, "knearest", time.Now())

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tr, err := m.tree(name)
	if err != nil {
		return nil, err
	}
	return tr.KNearest(q, k), nil
}

// Within returns the points whose distance from q under metric is at most
// radius. Each supported metric bounds the per-axis offset by the distance,
// so the candidates come from a range search over the square around q.
func (m *manager) Within(
	ctx context.Context,
	name string,
	q geom.Point,
	radius float64,
	metric geom.DistanceFuncType,
) ([]geom.Point, error) {
	if !q.Finite() {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, q)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	if metric == "" {
		metric = geom.DistanceFuncTypeEuclidean
	}
	distFn, err := geom.DistanceFuncFor(metric)
	if err != nil {
		return nil, err
	}
	defer metrics.Since(ctx, name, "within", time.Now())

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tr, err := m.tree(name)
	if err != nil {
		return nil, err
	}
	square := geom.NewRect(
		geom.NewPoint(q.X-radius, q.Y-radius),
		geom.NewPoint(q.X+radius, q.Y+radius),
	)
	result := make([]geom.Point, 0)
	tr.Scan(square, func(p geom.Point) bool {
		if distFn(q, p) <= radius {
			result = append(result, p)
		}
		return true
	})
	return result, nil
}

func (m *manager) Dump(ctx context.Context, name string, w io.Writer) error {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	tr, err := m.tree(name)
	if err != nil {
		return err
	}
	if err := WriteTree(w, tr); err != nil {
		logging.FromContext(ctx).Errorf("Dump of layer %s failed: %v", name, err)
		return fmt.Errorf("dump %s: %w", name, err)
	}
	return nil
}

// Stats describes every layer, ordered by name.
func (m *manager) Stats(_ context.Context) []Stat {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	stats := make([]Stat, 0, len(m.layers))
	for name, tr := range m.layers {
		s := Stat{Name: name, Points: tr.Len(), Height: tr.Height()}
		if b, ok := tr.Bounds(); ok {
			s.Bounds = &b
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

func (m *manager) Drop(ctx context.Context, name string) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, ok := m.layers[name]; !ok {
		return false
	}
	delete(m.layers, name)
	metrics.Record(ctx, name, metrics.MPointsStored.M(0))
	logging.FromContext(ctx).Infof("Dropped layer %s", name)
	return true
}
