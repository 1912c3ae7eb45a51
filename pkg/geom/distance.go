package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownDistance = errors.New("unknown distance function")

type DistanceFn func(p, p1 Point) float64

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

func EuclideanDistance(p, p1 Point) float64 {
	return math.Hypot(p.X-p1.X, p.Y-p1.Y)
}

func ChebyshevDistance(p, p1 Point) float64 {
	return math.Max(math.Abs(p.X-p1.X), math.Abs(p.Y-p1.Y))
}

func ManhattanDistance(p, p1 Point) float64 {
	return math.Abs(p.X-p1.X) + math.Abs(p.Y-p1.Y)
}

func DistanceFuncFor(d DistanceFuncType) (DistanceFn, error) {
	switch DistanceFuncType(strings.ToUpper(string(d))) {
	case DistanceFuncTypeEuclidean:
		return EuclideanDistance, nil
	case DistanceFuncTypeChebyshev:
		return ChebyshevDistance, nil
	case DistanceFuncTypeManhattan:
		return ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDistance, d)
	}
}
