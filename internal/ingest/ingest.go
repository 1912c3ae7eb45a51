// Package ingest periodically pulls point feeds over HTTP into layers.
package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/pkg/rworker"
)

const maxFeedBytes = 64 * 1024 * 1024

type Manager interface {
	Run(context.Context) error
	Stop()
}

type ProvideFn = func(layer.Collector, chan<- error) (Manager, error)

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	interval             time.Duration
	client               httputil.HTTPClientConfig
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.interval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

func WithHTTPClientConfig(cfg httputil.HTTPClientConfig) Option {
	return func(o *manager) {
		o.opts.client = cfg
	}
}

func New(collector layer.Collector, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if collector == nil {
		return nil, fmt.Errorf("layer collector is not defined")
	}
	m := &manager{
		opts: Options{
			maxConcurrentRequest: 16,
			requestTimeout:       30 * time.Second,
			interval:             10 * time.Second,
		},
		targets:    Targets{},
		shutdownCh: shutdownCh,
		collector:  collector,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.opts.interval <= 0 {
		return nil, fmt.Errorf("ingest interval must be positive, got %v", m.opts.interval)
	}
	client, err := httputil.NewClientFromConfig(m.opts.client, m.opts.requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("httputil.NewClientFromConfig: %w", err)
	}
	m.client = client
	return m, nil
}

type manager struct {
	opts       Options
	targets    Targets
	collector  layer.Collector
	client     *http.Client
	shutdownCh chan<- error

	mtx    sync.Mutex
	cancel func()
}

func (s *manager) Stop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Run pulls every target once right away and then on every tick, until ctx
// is done or Stop is called. The shutdown channel receives nil on exit.
func (s *manager) Run(ctx context.Context) error {
	for _, t := range s.targets {
		if _, err := url.ParseRequestURI(t.URL); err != nil {
			return fmt.Errorf("invalid ingest target %q: %w", t.URL, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mtx.Lock()
	s.cancel = cancel
	s.mtx.Unlock()

	go func() {
		defer func() {
			if s.shutdownCh != nil {
				s.shutdownCh <- nil
			}
		}()
		ticker := time.NewTicker(s.opts.interval)
		defer ticker.Stop()

		s.ingest(ctx)
		for {
			select {
			case <-ticker.C:
				s.ingest(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *manager) fetch(ctx context.Context, target string) (api.PointsRequest, error) {
	var feed api.PointsRequest
	ctx, cancel := context.WithTimeout(ctx, s.opts.requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return feed, fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := s.client.Do(req)
	if err != nil {
		return feed, fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return feed, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := ioutil.ReadAll(io.LimitReader(reader, maxFeedBytes))
	if err != nil {
		return feed, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return feed, fmt.Errorf("response was not 200 OK: %s", body)
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&feed); err != nil {
		return feed, fmt.Errorf("decoding response error: %w", err)
	}
	return feed, nil
}

func (s *manager) ingest(ctx context.Context) {
	logger := logging.FromContext(ctx)
	workers := rworker.New(s.opts.maxConcurrentRequest)
	for _, t := range s.targets {
		t := t
		workers.Go(func() error {
			feed, err := s.fetch(ctx, t.URL)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", t.URL, err)
			}
			if t.Layer != "" {
				feed.Layer = t.Layer
			}
			if err := s.collector.Insert(ctx, feed.Layer, feed.Points...); err != nil {
				return fmt.Errorf("ingest %s into %s: %w", t.URL, feed.Layer, err)
			}
			logger.Debugf("Ingested %d points from %s into layer %s", len(feed.Points), t.URL, feed.Layer)
			return nil
		})
	}
	for _, err := range workers.Wait() {
		logger.Errorf("ingest manager error: %v", err)
	}
}
