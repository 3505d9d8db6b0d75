// Command guidance runs the guidance controller for one vehicle.
//
// Usage:
//
//	guidance -c guidance.yaml
//
// The controller connects to NATS, consumes telemetry, issues altitude and
// heading corrections and monitors the command link until SIGINT or SIGTERM.
// Records tagged persist=true are also kept in the SQLite journal when
// journal.path is set, and Prometheus metrics are served when metrics.addr is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arloliu/guidance"
	"github.com/arloliu/guidance/internal/journal"
	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/metrics"
)

func main() {
	configPath := flag.String("c", "", "Path to configuration file (defaults are used when empty)")
	logLevel := flag.String("log-level", "info", "Console log level: debug, info, warn, error")
	flag.Parse()

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "guidance: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	var durable slog.Handler
	if cfg.Journal.Path != "" {
		store := journal.Open(cfg.Journal.Path)
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "guidance: closing journal: %v\n", err)
			}
		}()
		durable = journal.NewHandler(store, slog.LevelInfo)
	}

	logger := logging.NewSlog(slog.New(logging.NewRouter(console, durable)).With("vehicle_id", cfg.VehicleID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(reg, cfg.Metrics.Namespace)

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.NewServer(cfg.Metrics.Addr, reg)
		if err != nil {
			return err
		}
		logger.Info("serving metrics", "addr", srv.Addr())

		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("guidance-"+cfg.VehicleID),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	defer nc.Close()

	hooks := &guidance.Hooks{
		OnLinkStatusChanged: func(_ context.Context, from, to guidance.LinkStatus) error {
			logger.Info("command link changed", "from", from.String(), "to", to.String())
			return nil
		},
	}

	ctrl, err := guidance.NewController(cfg, nc,
		guidance.WithLogger(logger),
		guidance.WithMetrics(collector),
		guidance.WithHooks(hooks),
	)
	if err != nil {
		return err
	}

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-ctrl.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout+time.Second)
	defer cancel()

	if err := ctrl.Stop(shutdownCtx); err != nil && !errors.Is(err, guidance.ErrNotStarted) {
		logger.Error("shutdown failed", "error", err)
	}

	stats := ctrl.Stats()
	logger.Info("controller exited",
		"samples", stats.Samples,
		"messages", stats.Messages,
		"timeouts", stats.Timeouts,
		"errors", stats.Errors,
	)

	return ctrl.Err()
}

func loadConfig(path string) (*guidance.Config, error) {
	if path == "" {
		cfg := guidance.DefaultConfig()
		guidance.SetDefaults(&cfg)

		return &cfg, cfg.Validate()
	}

	return guidance.LoadConfig(path)
}
