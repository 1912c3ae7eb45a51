package ingest

import (
	"encoding/json"
	"time"

	"github.com/go-sod/sidx/internal/httputil"
)

type Config struct {
	Targets              Targets       `envconfig:"SIDX_INGEST_TARGETS"`
	MaxConcurrentRequest int           `envconfig:"SIDX_INGEST_MAX_CONCURRENT_REQUEST" default:"16"`
	Interval             time.Duration `envconfig:"SIDX_INGEST_INTERVAL" default:"10s"`
	RequestTimeout       time.Duration `envconfig:"SIDX_INGEST_REQUEST_TIMEOUT" default:"30s"`
	BearerToken          string        `envconfig:"SIDX_INGEST_BEARER_TOKEN"`
	BasicUser            string        `envconfig:"SIDX_INGEST_BASIC_USER"`
	BasicPassword        string        `envconfig:"SIDX_INGEST_BASIC_PASSWORD"`
}

// HTTPClientConfig returns the authentication settings of the feed client.
func (c *Config) HTTPClientConfig() httputil.HTTPClientConfig {
	cfg := httputil.HTTPClientConfig{BearerToken: c.BearerToken}
	if c.BasicUser != "" {
		cfg.BasicAuth = &httputil.BasicAuth{Username: c.BasicUser, Password: c.BasicPassword}
	}
	return cfg
}

type Targets []Target

// Decode reads targets from a JSON array, as given in the environment.
func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

// Target is a feed URL. Layer, when set, overrides the layer named in the
// feed itself.
type Target struct {
	URL   string `json:"url"`
	Layer string `json:"layer"`
}
