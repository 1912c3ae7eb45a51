package geom

import (
	"math"
	"strconv"
)

// Point is a location on the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Equal reports an exact coordinate match. No tolerance is applied.
func (p Point) Equal(p1 Point) bool {
	return p.X == p1.X && p.Y == p1.Y
}

func (p Point) Dim(idx int) float64 {
	if idx == 0 {
		return p.X
	}
	return p.Y
}

func (p Point) Dimensions() int {
	return 2
}

func (p Point) Points() []float64 {
	return []float64{p.X, p.Y}
}

func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string {
	return "(" + strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64) + ")"
}
