package collect

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIDX_COLLECT_REQUEST_TIMEOUT" default:"60s"`
	MaxBatch       int           `envconfig:"SIDX_COLLECT_MAX_BATCH" default:"10000"`
}
