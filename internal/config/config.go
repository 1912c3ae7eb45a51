package sidx

import (
	"github.com/go-sod/sidx/internal/collect"
	"github.com/go-sod/sidx/internal/ingest"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/internal/query"
	"github.com/go-sod/sidx/internal/setup"
)

var (
	_ setup.LayerConfigProvider  = (*Config)(nil)
	_ setup.IngestConfigProvider = (*Config)(nil)
)

type Config struct {
	SrvAddr   string `envconfig:"SIDX_ADDR" default:":8787"`
	GRPCAddr  string `envconfig:"SIDX_GRPC_ADDR" default:":8788"`
	DebugAddr string `envconfig:"SIDX_DEBUG_ADDR"`
	Layer     layer.Config
	Collect   collect.Config
	Query     query.Config
	Ingest    ingest.Config
	Log       logging.Config
}

func (c *Config) LayerConfig() *layer.Config {
	return &c.Layer
}

func (c *Config) IngestConfig() *ingest.Config {
	return &c.Ingest
}
