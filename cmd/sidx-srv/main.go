package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/sidx/internal/buildinfo"
	"github.com/go-sod/sidx/internal/collect"
	sidx "github.com/go-sod/sidx/internal/config"
	"github.com/go-sod/sidx/internal/grpcapi"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/ingest"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/internal/metrics"
	"github.com/go-sod/sidx/internal/query"
	"github.com/go-sod/sidx/internal/server"
	"github.com/go-sod/sidx/internal/setup"
	"github.com/go-sod/sidx/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintln(os.Stdout, buildinfo.Info.String())

	ctx, done := shutdown.New()
	defer done()

	logger := logging.NewLoggerFromEnv()
	ctx = logging.WithLogger(ctx, logger)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	config := sidx.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}

	layers, err := env.ProvideLayer()()
	if err != nil {
		return fmt.Errorf("layer provider function error: %w", err)
	}

	httpSrv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(config.GRPCAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()
	collectHandler, err := collect.NewHandler(&config.Collect, layers)
	if err != nil {
		return fmt.Errorf("collect.NewHandler: %w", err)
	}
	collectHandler.Register(mux)

	queryHandler, err := query.NewHandler(&config.Query, layers)
	if err != nil {
		return fmt.Errorf("query.NewHandler: %w", err)
	}
	queryHandler.Register(mux)

	metricsHandler, err := metrics.NewHandler(ctx)
	if err != nil {
		return fmt.Errorf("metrics.NewHandler: %w", err)
	}
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	g, gctx := errgroup.WithContext(ctx)

	var feeds ingest.Manager
	if provideFn := env.ProvideIngest(); provideFn != nil {
		shutdownCh := make(chan error, 1)
		feeds, err = provideFn(layers, shutdownCh)
		if err != nil {
			return fmt.Errorf("ingest provider function error: %w", err)
		}
		if err := feeds.Run(gctx); err != nil {
			return fmt.Errorf("ingest.Run: %w", err)
		}
		g.Go(func() error {
			return <-shutdownCh
		})
	}

	g.Go(func() error {
		logger.Infof("HTTP API listening on %s", httpSrv.Addr())
		return httpSrv.ServeHTTPHandler(gctx, httputil.WithRequestID(mux))
	})

	g.Go(func() error {
		srv := grpcapi.NewGRPCServer(gctx, grpcapi.NewServer(
			layers,
			grpcapi.WithMaxBatch(config.Collect.MaxBatch),
			grpcapi.WithMaxK(config.Query.MaxK),
		))
		logger.Infof("gRPC API listening on %s", grpcSrv.Addr())
		return grpcSrv.ServeGRPC(gctx, srv)
	})

	if config.DebugAddr != "" {
		debugSrv, err := server.New(config.DebugAddr)
		if err != nil {
			return fmt.Errorf("server.New: %w", err)
		}
		g.Go(func() error {
			logger.Infof("Debug endpoints listening on %s", debugSrv.Addr())
			return debugSrv.ServeHTTPHandler(gctx, debugMux())
		})
	}

	err = g.Wait()
	if feeds != nil {
		feeds.Stop()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
