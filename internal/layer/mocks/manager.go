// Package mocks provides testify mocks of the layer interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/geom"
)

var _ layer.Manager = (*Manager)(nil)

// Manager is a mock type for the layer.Manager type
type Manager struct {
	mock.Mock
}

func (m *Manager) Insert(ctx context.Context, name string, points ...geom.Point) error {
	ret := m.Called(ctx, name, points)
	return ret.Error(0)
}

func (m *Manager) Delete(ctx context.Context, name string, points ...geom.Point) (int, error) {
	ret := m.Called(ctx, name, points)
	return ret.Int(0), ret.Error(1)
}

func (m *Manager) Search(ctx context.Context, name string, r geom.Rect) ([]geom.Point, error) {
	ret := m.Called(ctx, name, r)
	points, _ := ret.Get(0).([]geom.Point)
	return points, ret.Error(1)
}

func (m *Manager) Nearest(ctx context.Context, name string, q geom.Point) (geom.Point, bool, error) {
	ret := m.Called(ctx, name, q)
	return ret.Get(0).(geom.Point), ret.Bool(1), ret.Error(2)
}

func (m *Manager) KNearest(ctx context.Context, name string, q geom.Point, k int) ([]geom.Point, error) {
	ret := m.Called(ctx, name, q, k)
	points, _ := ret.Get(0).([]geom.Point)
	return points, ret.Error(1)
}

func (m *Manager) Within(
	ctx context.Context,
	name string,
	q geom.Point,
	radius float64,
	metric geom.DistanceFuncType,
) ([]geom.Point, error) {
	ret := m.Called(ctx, name, q, radius, metric)
	points, _ := ret.Get(0).([]geom.Point)
	return points, ret.Error(1)
}

func (m *Manager) Dump(ctx context.Context, name string, w io.Writer) error {
	ret := m.Called(ctx, name, w)
	return ret.Error(0)
}

func (m *Manager) Stats(ctx context.Context) []layer.Stat {
	ret := m.Called(ctx)
	stats, _ := ret.Get(0).([]layer.Stat)
	return stats
}

func (m *Manager) Drop(ctx context.Context, name string) bool {
	ret := m.Called(ctx, name)
	return ret.Bool(0)
}
