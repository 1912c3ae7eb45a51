// Package srvenv holds the provider functions the server is assembled from.
package srvenv

import (
	"github.com/go-sod/sidx/internal/ingest"
	"github.com/go-sod/sidx/internal/layer"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	layer  layer.ProvideFn
	ingest ingest.ProvideFn
}

func (s *SrvEnv) ProvideLayer() layer.ProvideFn {
	return s.layer
}

// ProvideIngest is nil when no feed is configured.
func (s *SrvEnv) ProvideIngest() ingest.ProvideFn {
	return s.ingest
}

func WithLayer(fn layer.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.layer = fn
		return s
	}
}

func WithIngest(fn ingest.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.ingest = fn
		return s
	}
}
