package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sod/sidx/pkg/geom"
)

// parsePoint reads "x,y".
func parsePoint(s string) (geom.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Point{}, fmt.Errorf("point %q: expected x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return geom.NewPoint(x, y), nil
}

func parsePoints(args []string) ([]geom.Point, error) {
	points := make([]geom.Point, 0, len(args))
	for _, a := range args {
		p, err := parsePoint(a)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// parseRect reads the two corners "x1,y1" "x2,y2" in any order.
func parseRect(lower, upper string) (geom.Rect, error) {
	a, err := parsePoint(lower)
	if err != nil {
		return geom.Rect{}, err
	}
	b, err := parsePoint(upper)
	if err != nil {
		return geom.Rect{}, err
	}
	r, _ := geom.Bound(a, b)
	return r, nil
}
