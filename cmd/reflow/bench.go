package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow"
	"github.com/AnatoleLucet/reflow/internal/config"
	"github.com/AnatoleLucet/reflow/internal/telemetry"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run batches of writes through a synthetic graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, _ := cmd.Flags().GetString("shape")
		if shape != "" {
			cfg.Bench.Shape = shape
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		res, err := runBench(cfg, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d nodes, %d iterations in %s (%d computes, %d effect runs, final %d)\n",
			cfg.Bench.Shape, res.Nodes, res.Iterations, res.Elapsed, res.Computes, res.EffectRuns, res.Final)
		return nil
	},
}

func init() {
	benchCmd.Flags().String("shape", "", "graph shape: chain, fan or diamond")
}

type benchResult struct {
	Nodes      int
	Iterations int
	Computes   int
	EffectRuns int
	Final      int
	Elapsed    time.Duration
}

func runBench(c config.Config, logger *zap.Logger) (benchResult, error) {
	opts := []reflow.RuntimeOption{
		reflow.WithLogger(logger),
		reflow.WithLeaseDuration(c.Lease),
	}

	if c.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, reflow.WithMetrics(telemetry.NewMetrics(
			telemetry.WithNamespace(c.Metrics.Namespace),
			telemetry.WithRegistry(reg),
		)))

		if c.Metrics.Addr != "" {
			stop := serveMetrics(c.Metrics.Addr, reg, logger)
			defer stop()
		}
	}

	reflow.Configure(opts...)
	defer reflow.Close()
	if len(c.Log.Tasks) > 0 {
		reflow.Log(c.Log.Tasks...)
	}

	g, err := buildGraph(c.Bench.Shape, c.Bench.Width, c.Bench.Depth)
	if err != nil {
		return benchResult{}, err
	}

	res := benchResult{Nodes: g.nodes, Iterations: c.Bench.Iterations}
	effect := reflow.NewEffect(func() func() {
		res.EffectRuns++
		res.Final = g.sink.Get()
		return nil
	})
	defer effect.Dispose()

	start := time.Now()
	for i := 1; i <= c.Bench.Iterations; i++ {
		reflow.Batch(func() { g.source.Set(i) })
	}
	res.Elapsed = time.Since(start)
	res.Computes = g.computes

	if want := expected(c.Bench.Shape, c.Bench.Width, c.Bench.Depth, c.Bench.Iterations); res.Final != want {
		return res, fmt.Errorf("graph settled to %d, want %d", res.Final, want)
	}

	logger.Info("bench done",
		zap.String("shape", c.Bench.Shape),
		zap.Int("nodes", res.Nodes),
		zap.Int("computes", res.Computes),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
