package query

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SIDX_QUERY_REQUEST_TIMEOUT" default:"30s"`
	MaxK           int           `envconfig:"SIDX_QUERY_MAX_K" default:"100"`
}
