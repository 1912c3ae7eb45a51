package main

import (
	"context"
	"fmt"

	"github.com/go-sod/sidx/internal/grpcapi"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/integration"
	"github.com/go-sod/sidx/pkg/geom"
)

// backend runs the point operations over either transport.
type backend interface {
	Insert(ctx context.Context, name string, points ...geom.Point) error
	Delete(ctx context.Context, name string, points ...geom.Point) (int, error)
	Search(ctx context.Context, name string, r geom.Rect) ([]geom.Point, error)
	Nearest(ctx context.Context, name string, q geom.Point, k int) ([]geom.Point, bool, error)
	Within(ctx context.Context, name string, q geom.Point, radius float64, metric geom.DistanceFuncType) ([]geom.Point, error)
}

var (
	_ backend = (*httpBackend)(nil)
	_ backend = (*grpcapi.Client)(nil)
)

type httpBackend struct {
	*integration.Client
}

func (b httpBackend) Nearest(ctx context.Context, name string, q geom.Point, k int) ([]geom.Point, bool, error) {
	resp, err := b.Client.Nearest(ctx, name, q, k)
	if err != nil {
		return nil, false, err
	}
	return resp.Points, resp.Found, nil
}

func (f *globalFlags) httpClient() (*integration.Client, error) {
	cfg := httputil.HTTPClientConfig{BearerToken: f.token}
	if f.user != "" {
		cfg.BasicAuth = &httputil.BasicAuth{Username: f.user, Password: f.password}
	}
	c, err := integration.NewClient(f.addr, cfg, f.timeout)
	if err != nil {
		return nil, fmt.Errorf("integration.NewClient: %w", err)
	}
	return c, nil
}

// backend returns the gRPC client when --grpc is set and the HTTP client
// otherwise. The returned func releases the connection.
func (f *globalFlags) backend(ctx context.Context) (backend, func(), error) {
	if f.grpcAddr != "" {
		c, err := grpcapi.Dial(ctx, f.grpcAddr)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}
	c, err := f.httpClient()
	if err != nil {
		return nil, nil, err
	}
	return &httpBackend{Client: c}, func() {}, nil
}
