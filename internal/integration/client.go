// Package integration is a client of the HTTP API, used by the command line
// tool and by end-to-end tests.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/geom"
)

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// prefixRoundTripper fills in the scheme and host of relative request URLs.
type prefixRoundTripper struct {
	scheme string
	host   string
	rt     http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.URL.Scheme != "" && r.URL.Host != "" {
		return p.rt.RoundTrip(r)
	}
	r2 := r.Clone(r.Context())
	if r2.URL.Scheme == "" {
		r2.URL.Scheme = p.scheme
	}
	if r2.URL.Host == "" {
		r2.URL.Host = p.host
		r2.Host = p.host
	}
	return p.rt.RoundTrip(r2)
}

// NewClient returns a client of the server at addr, given either as
// host:port or as a base URL.
func NewClient(addr string, cfg httputil.HTTPClientConfig, timeout time.Duration) (*Client, error) {
	scheme, host := "http", addr
	if u, err := url.Parse(addr); err == nil && u.Scheme != "" && u.Host != "" {
		scheme, host = u.Scheme, u.Host
	}
	rt, err := httputil.NewRoundTripperFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: &http.Client{
		Timeout:   timeout,
		Transport: &prefixRoundTripper{scheme: scheme, host: host, rt: rt},
	}}, nil
}

type Client struct {
	client *http.Client
}

func (c *Client) Insert(ctx context.Context, name string, points ...geom.Point) error {
	return c.doJSON(ctx, http.MethodPost, "/points", api.PointsRequest{Layer: name, Points: points}, nil)
}

func (c *Client) Delete(ctx context.Context, name string, points ...geom.Point) (int, error) {
	var resp api.DeleteResponse
	err := c.doJSON(ctx, http.MethodDelete, "/points", api.PointsRequest{Layer: name, Points: points}, &resp)
	return resp.Removed, err
}

func (c *Client) Drop(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/layer?layer="+url.QueryEscape(name), nil, nil)
}

func (c *Client) Search(ctx context.Context, name string, r geom.Rect) ([]geom.Point, error) {
	var resp api.PointsResponse
	err := c.doJSON(ctx, http.MethodPost, "/search", api.SearchRequest{Layer: name, Rect: r}, &resp)
	return resp.Points, err
}

// Nearest returns the k closest points; k below 2 asks for the single
// nearest one.
func (c *Client) Nearest(ctx context.Context, name string, q geom.Point, k int) (api.NearestResponse, error) {
	var resp api.NearestResponse
	err := c.doJSON(ctx, http.MethodPost, "/nearest", api.NearestRequest{Layer: name, Point: q, K: k}, &resp)
	return resp, err
}

func (c *Client) Within(
	ctx context.Context,
	name string,
	q geom.Point,
	radius float64,
	metric geom.DistanceFuncType,
) ([]geom.Point, error) {
	var resp api.PointsResponse
	req := api.WithinRequest{Layer: name, Point: q, Radius: radius, Metric: metric}
	err := c.doJSON(ctx, http.MethodPost, "/within", req, &resp)
	return resp.Points, err
}

func (c *Client) Dump(ctx context.Context, name string, w io.Writer) error {
	return c.do(ctx, http.MethodGet, "/dump?layer="+url.QueryEscape(name), nil, func(body io.Reader) error {
		_, err := io.Copy(w, body)
		return err
	})
}

func (c *Client) Layers(ctx context.Context) ([]layer.Stat, error) {
	var stats []layer.Stat
	err := c.do(ctx, http.MethodGet, "/layers", nil, decodeInto(&stats))
	return stats, err
}

// Health returns nil when the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("unable marshal request: %w", err)
	}
	var read func(io.Reader) error
	if out != nil {
		read = decodeInto(out)
	}
	return c.do(ctx, method, path, b, read)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, read func(io.Reader) error) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("create new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error with sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e api.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if err := json.Unmarshal(raw, &e); err != nil || e.Error == "" {
			e.Error = string(bytes.TrimSpace(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if read == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return read(resp.Body)
}

func decodeInto(v interface{}) func(io.Reader) error {
	return func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(v); err != nil {
			return fmt.Errorf("unable decode response: %w", err)
		}
		return nil
	}
}
