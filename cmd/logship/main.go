// Command logship forwards lines read from stdin to a remotelog collection
// endpoint, echoing them to the console on the way.
//
// Configuration comes from remotelog.yaml (./config or .) and REMOTELOG_*
// environment variables. When metrics.address is set, /metrics and /healthz
// are served there.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/remotelog/config"
	"github.com/angeloszaimis/remotelog/internal/httpserver"
	"github.com/angeloszaimis/remotelog/pkg/logger"
	"github.com/angeloszaimis/remotelog/pkg/metrics"
	"github.com/angeloszaimis/remotelog/pkg/remotelog"
	"github.com/angeloszaimis/remotelog/pkg/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.AddSource, cfg.Environment, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The collector outlives ctx so deliveries finishing during shutdown
	// are still counted.
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(collectorCtx)

	sender := transport.New(cfg.TransportOptions(collector, log)...)

	remote, err := newRemoteLogger(cfg, sender, collector)
	if err != nil {
		log.Error("Failed to create logger", slog.Any("err", err))
		os.Exit(1)
	}

	var srv *httpserver.Server
	srvErrCh := make(chan error, 1)
	if cfg.Metrics.Address != "" {
		srv, err = httpserver.New(cfg.Metrics.Address, setupRouter(collector, sender), log)
		if err != nil {
			log.Error("Failed to create server", slog.Any("err", err))
			os.Exit(1)
		}
		go func() {
			srvErrCh <- srv.Start()
		}()
	}

	level, _ := remotelog.ParseLevel(cfg.Ship.Level)
	ship := newShipper(remote, level, cfg.Ship.Source)

	type result struct {
		lines int
		err   error
	}
	shipDone := make(chan result, 1)
	go func() {
		n, err := ship.Run(ctx, os.Stdin)
		shipDone <- result{lines: n, err: err}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case res := <-shipDone:
		if res.err != nil && ctx.Err() == nil {
			log.Error("Failed to read input", slog.Any("err", res.err))
			exitCode = 1
		}
		log.Info("Input exhausted", slog.Int("lines", res.lines))
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Metrics server failed", slog.Any("err", err))
			exitCode = 1
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", slog.Any("err", err))
		}
	}
	if err := sender.Close(shutdownCtx); err != nil {
		log.Warn("Pending log events dropped", slog.Any("err", err))
	}

	stopCollector()
	snap := collector.Snapshot()
	log.Info("Shipping finished",
		slog.Int64("sends_suppressed", snap.SendsSuppressed),
		slog.Int64("dropped_metric_events", snap.DroppedEvents),
	)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newRemoteLogger(cfg *config.Config, sender remotelog.Transport, recorder metrics.Recorder) (*remotelog.Logger, error) {
	opts := append(cfg.LoggerOptions(),
		remotelog.WithTransport(sender),
		remotelog.WithMetrics(recorder),
	)
	return remotelog.New(cfg.Endpoint, opts...)
}
