// Command serialbridge forwards telemetry lines from a serial radio to the
// vehicle's telemetry subject.
//
// Usage:
//
//	serialbridge -c guidance.yaml [-port /dev/ttyUSB0] [-baud 57600]
//
// Each "x,y,z,yaw" line becomes one JSON telemetry sample in the telemetry stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/guidance"
	"github.com/arloliu/guidance/internal/logging"
	"github.com/arloliu/guidance/internal/serialbridge"
	"github.com/arloliu/guidance/link"
)

func main() {
	configPath := flag.String("c", "", "Path to configuration file (defaults are used when empty)")
	port := flag.String("port", "", "Serial device, overrides serial.port")
	baud := flag.Int("baud", 0, "Baud rate, overrides serial.baudRate")
	flag.Parse()

	if err := run(*configPath, *port, *baud); err != nil {
		fmt.Fprintf(os.Stderr, "serialbridge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, port string, baud int) error {
	cfg := guidance.DefaultConfig()
	if configPath != "" {
		loaded, err := guidance.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	guidance.SetDefaults(&cfg)

	if port != "" {
		cfg.Serial.Port = port
	}
	if baud > 0 {
		cfg.Serial.BaudRate = baud
	}
	if cfg.Serial.Port == "" {
		return fmt.Errorf("%w: serial port is required", guidance.ErrInvalidConfig)
	}

	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, nil)).With(
		"vehicle_id", cfg.VehicleID,
		"port", cfg.Serial.Port,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("serialbridge-"+cfg.VehicleID), nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	if cfg.Streams.Create {
		telemetrySubject, _ := cfg.StreamSubjects()
		setupCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
		err := link.EnsureStreams(setupCtx, js, link.StreamSpec{
			Name:     cfg.Streams.Telemetry,
			Subjects: []string{telemetrySubject},
			MaxAge:   cfg.Streams.MaxAge,
		})
		cancel()
		if err != nil {
			return err
		}
	}

	serialPort, err := serialbridge.OpenPort(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.ReadTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := serialPort.Close(); err != nil {
			logger.Warn("failed to close serial port", "error", err)
		}
	}()

	bridge, err := serialbridge.New(serialPort, link.NewTelemetryPublisher(js, cfg.Subjects.Telemetry), logger)
	if err != nil {
		return err
	}

	logger.Info("forwarding telemetry", "subject", cfg.Subjects.Telemetry, "baud", cfg.Serial.BaudRate)
	err = bridge.Run(ctx)

	stats := bridge.Stats()
	logger.Info("serial bridge exited",
		"lines", stats.Lines,
		"published", stats.Published,
		"malformed", stats.Malformed,
		"failed", stats.Failed,
	)

	return err
}
