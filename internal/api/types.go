// Package api holds the JSON messages shared by the HTTP handlers, the gRPC
// service and their clients.
package api

import "github.com/go-sod/sidx/pkg/geom"

// PointsRequest carries a batch of points for one layer.
type PointsRequest struct {
	Layer  string       `json:"layer"`
	Points []geom.Point `json:"points"`
}

type DeleteResponse struct {
	Removed int `json:"removed"`
}

type SearchRequest struct {
	Layer string    `json:"layer"`
	Rect  geom.Rect `json:"rect"`
}

// NearestRequest asks for the k points closest to Point; K below 2 means the
// single nearest one.
type NearestRequest struct {
	Layer string     `json:"layer"`
	Point geom.Point `json:"point"`
	K     int        `json:"k,omitempty"`
}

type NearestResponse struct {
	Found  bool         `json:"found"`
	Points []geom.Point `json:"points"`
}

type WithinRequest struct {
	Layer  string                `json:"layer"`
	Point  geom.Point            `json:"point"`
	Radius float64               `json:"radius"`
	Metric geom.DistanceFuncType `json:"metric,omitempty"`
}

type PointsResponse struct {
	Points []geom.Point `json:"points"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
