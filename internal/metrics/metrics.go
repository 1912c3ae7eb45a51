// Package metrics defines the opencensus measures of the index and exposes
// them to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"github.com/go-sod/sidx/internal/logging"
)

const Namespace = "sidx"

var (
	KeyLayer = mustKey("layer")
	KeyOp    = mustKey("op")
)

var (
	MPointsInserted = stats.Int64("points_inserted", "Number of points inserted", stats.UnitDimensionless)
	MPointsRemoved  = stats.Int64("points_removed", "Number of points removed", stats.UnitDimensionless)
	MDeleteMisses   = stats.Int64("delete_misses", "Number of deletes that found no entry", stats.UnitDimensionless)
	MPointsStored   = stats.Int64("points_stored", "Number of points stored in a layer", stats.UnitDimensionless)
	MQueryLatency   = stats.Float64("query_latency", "Query latency", stats.UnitMilliseconds)
)

var Views = []*view.View{
	{
		Name:        "points_inserted",
		Measure:     MPointsInserted,
		Description: MPointsInserted.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "points_removed",
		Measure:     MPointsRemoved,
		Description: MPointsRemoved.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "delete_misses",
		Measure:     MDeleteMisses,
		Description: MDeleteMisses.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "points_stored",
		Measure:     MPointsStored,
		Description: MPointsStored.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.LastValue(),
	},
	{
		Name:        "queries",
		Measure:     MQueryLatency,
		Description: "Number of queries served",
		TagKeys:     []tag.Key{KeyLayer, KeyOp},
		Aggregation: view.Count(),
	},
	{
		Name:        "query_latency",
		Measure:     MQueryLatency,
		Description: MQueryLatency.Description(),
		TagKeys:     []tag.Key{KeyOp},
		Aggregation: view.Distribution(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500),
	},
}

func mustKey(name string) tag.Key {
	k, err := tag.NewKey(name)
	if err != nil {
		panic(err)
	}
	return k
}

// Register registers every view. Registering the same views twice is a
// no-op.
func Register() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("view.Register: %w", err)
	}
	return nil
}

// NewHandler registers the views and returns the Prometheus scrape
// endpoint serving them.
func NewHandler(ctx context.Context) (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: Namespace,
		OnError: func(err error) {
			logger.Errorf("prometheus exporter: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prometheus.NewExporter: %w", err)
	}
	return exporter, nil
}

// Record records ms tagged with layer. Failures are logged, never returned.
func Record(ctx context.Context, layer string, ms ...stats.Measurement) {
	if err := stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyLayer, layer)}, ms...); err != nil {
		logging.FromContext(ctx).Debugf("metrics.Record: %v", err)
	}
}

// Since records the latency of one query of kind op started at start.
func Since(ctx context.Context, layer, op string, start time.Time) {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	mutators := []tag.Mutator{tag.Upsert(KeyLayer, layer), tag.Upsert(KeyOp, op)}
	if err := stats.RecordWithTags(ctx, mutators, MQueryLatency.M(ms)); err != nil {
		logging.FromContext(ctx).Debugf("metrics.Since: %v", err)
	}
}
