package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/pkg/geom"
)

// Client calls sidx.Index over a grpc connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. Extra options are
// applied after the defaults.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc.DialContext %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Insert(ctx context.Context, layer string, points ...geom.Point) error {
	var resp api.StatusResponse
	return c.conn.Invoke(ctx, fullMethod("Insert"), &api.PointsRequest{Layer: layer, Points: points}, &resp)
}

func (c *Client) Delete(ctx context.Context, layer string, points ...geom.Point) (int, error) {
	var resp api.DeleteResponse
	if err := c.conn.Invoke(ctx, fullMethod("Delete"), &api.PointsRequest{Layer: layer, Points: points}, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *Client) Search(ctx context.Context, layer string, r geom.Rect) ([]geom.Point, error) {
	var resp api.PointsResponse
	if err := c.conn.Invoke(ctx, fullMethod("Search"), &api.SearchRequest{Layer: layer, Rect: r}, &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

// Nearest returns the k closest points, or the single nearest one when k is
// below two, and whether anything was found.
func (c *Client) Nearest(ctx context.Context, layer string, q geom.Point, k int) ([]geom.Point, bool, error) {
	var resp api.NearestResponse
	if err := c.conn.Invoke(ctx, fullMethod("Nearest"), &api.NearestRequest{Layer: layer, Point: q, K: k}, &resp); err != nil {
		return nil, false, err
	}
	return resp.Points, resp.Found, nil
}

func (c *Client) Within(
	ctx context.Context,
	layer string,
	q geom.Point,
	radius float64,
	metric geom.DistanceFuncType,
) ([]geom.Point, error) {
	var resp api.PointsResponse
	req := &api.WithinRequest{Layer: layer, Point: q, Radius: radius, Metric: metric}
	if err := c.conn.Invoke(ctx, fullMethod("Within"), req, &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}
