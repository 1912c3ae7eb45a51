// Package setup reads the configuration and assembles the provider
// functions of the server environment.
package setup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/sidx/internal/ingest"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/internal/srvenv"
)

type LayerConfigProvider interface {
	LayerConfig() *layer.Config
}

type IngestConfigProvider interface {
	IngestConfig() *ingest.Config
}

type fileConfig struct {
	Path string `envconfig:"SIDX_CONFIG_FILE"`
}

// Setup fills config from the environment, falling back to the TOML file
// named by SIDX_CONFIG_FILE and then to the defaults, and returns the
// environment of providers the config asks for.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option

	var file fileConfig
	if err := envconfig.Process("", &file); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	if file.Path != "" {
		logger.Infof("Loading config file %s", file.Path)
		if err := LoadFile(file.Path); err != nil {
			return nil, fmt.Errorf("setup.LoadFile: %w", err)
		}
	}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if layerConfigProvider, ok := config.(LayerConfigProvider); ok {
		logger.Info("Configuring layers")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithLayer(ProvideLayerFor(layerConfigProvider)))
	}

	if ingestConfigProvider, ok := config.(IngestConfigProvider); ok {
		if cfg := ingestConfigProvider.IngestConfig(); len(cfg.Targets) > 0 {
			logger.Infof("Configuring ingestion of %d feeds", len(cfg.Targets))
			provideFn, err := ProvideIngestFor(ingestConfigProvider)
			if err != nil {
				return nil, fmt.Errorf("unable create ingest provide function: %w", err)
			}
			serverEnvOpts = append(serverEnvOpts, srvenv.WithIngest(provideFn))
		}
	}
	return srvenv.New(serverEnvOpts...), nil
}

// LoadFile exports every top-level key of a TOML file as an environment
// variable unless the variable is already set. Keys are the SIDX_* names;
// arrays and tables are exported as JSON.
func LoadFile(path string) error {
	values := map[string]interface{}{}
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return fmt.Errorf("toml.DecodeFile %s: %w", path, err)
	}
	for key, value := range values {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case []interface{}, []map[string]interface{}, map[string]interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			s = string(b)
		default:
			s = fmt.Sprint(v)
		}
		if err := os.Setenv(key, s); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func ProvideLayerFor(provider LayerConfigProvider) layer.ProvideFn {
	cfg := provider.LayerConfig()
	return func() (layer.Manager, error) {
		if cfg.MaxPoints < 0 {
			return nil, fmt.Errorf("max points must not be negative, got %d", cfg.MaxPoints)
		}
		return layer.New(
			layer.WithMaxPoints(cfg.MaxPoints),
			layer.WithMaxEntries(cfg.MaxEntries),
			layer.WithExactDelete(cfg.ExactDelete),
		), nil
	}
}

func ProvideIngestFor(provider IngestConfigProvider) (ingest.ProvideFn, error) {
	cfg := provider.IngestConfig()
	clientCfg := cfg.HTTPClientConfig()
	if err := clientCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest client config: %w", err)
	}
	return func(collector layer.Collector, shutdownCh chan<- error) (ingest.Manager, error) {
		return ingest.New(
			collector,
			shutdownCh,
			ingest.WithInterval(cfg.Interval),
			ingest.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			ingest.WithRequestTimeout(cfg.RequestTimeout),
			ingest.WithHTTPClientConfig(clientCfg),
			ingest.WithTargets(cfg.Targets),
		)
	}, nil
}
