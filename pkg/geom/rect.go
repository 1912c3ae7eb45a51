package geom

import "math"

// Rect is an axis-aligned box. Lower must not exceed Upper on either axis;
// this is not checked on construction.
type Rect struct {
	Lower Point `json:"lower"`
	Upper Point `json:"upper"`
}

func NewRect(lower, upper Point) Rect {
	return Rect{Lower: lower, Upper: upper}
}

// PointRect returns the degenerate box covering only p.
func PointRect(p Point) Rect {
	return Rect{Lower: p, Upper: p}
}

func (r Rect) Area() float64 {
	return (r.Upper.X - r.Lower.X) * (r.Upper.Y - r.Lower.Y)
}

// Valid reports whether Lower <= Upper on both axes.
func (r Rect) Valid() bool {
	return r.Lower.X <= r.Upper.X && r.Lower.Y <= r.Upper.Y
}

// Contains reports whether p lies inside r, bounds included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Lower.X && p.X <= r.Upper.X &&
		p.Y >= r.Lower.Y && p.Y <= r.Upper.Y
}

// Intersects reports whether r and r1 share at least one point. Boxes that
// only touch on an edge or a corner intersect.
func (r Rect) Intersects(r1 Rect) bool {
	return !(r1.Lower.X > r.Upper.X ||
		r1.Upper.X < r.Lower.X ||
		r1.Lower.Y > r.Upper.Y ||
		r1.Upper.Y < r.Lower.Y)
}

// Extend returns the smallest box covering both r and p.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		Lower: Point{X: math.Min(r.Lower.X, p.X), Y: math.Min(r.Lower.Y, p.Y)},
		Upper: Point{X: math.Max(r.Upper.X, p.X), Y: math.Max(r.Upper.Y, p.Y)},
	}
}

// Enlargement returns how much area r has to gain to cover p.
func (r Rect) Enlargement(p Point) float64 {
	return r.Extend(p).Area() - r.Area()
}

// MinDist returns the smallest Euclidean distance from p to any point of r,
// zero when p is inside.
func (r Rect) MinDist(p Point) float64 {
	dx := math.Max(0, math.Max(r.Lower.X-p.X, p.X-r.Upper.X))
	dy := math.Max(0, math.Max(r.Lower.Y-p.Y, p.Y-r.Upper.Y))
	return math.Hypot(dx, dy)
}

func (r Rect) String() string {
	return r.Lower.String() + " - " + r.Upper.String()
}

// BoundingBox returns the tightest box enclosing a and b. It is commutative
// and associative.
func BoundingBox(a, b Rect) Rect {
	return Rect{
		Lower: Point{X: math.Min(a.Lower.X, b.Lower.X), Y: math.Min(a.Lower.Y, b.Lower.Y)},
		Upper: Point{X: math.Max(a.Upper.X, b.Upper.X), Y: math.Max(a.Upper.Y, b.Upper.Y)},
	}
}

// Bound returns the tightest box around pts and false if pts is empty.
func Bound(pts ...Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r := PointRect(pts[0])
	for _, p := range pts[1:] {
		r = r.Extend(p)
	}
	return r, true
}
