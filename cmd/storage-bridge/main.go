// Storage Bridge - MQTT to TimescaleDB ingestion
//
// This is the main entry point for the storage bridge. The bridge
// subscribes to telemetry topics on an MQTT broker, deduplicates and
// normalizes the readings, and persists them into TimescaleDB. The broker
// connection parameters live in an external config database and are
// re-read at runtime, so broker, credentials, TLS policy, and topics can
// change without restarting the process.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atrium-controls/storage-bridge/internal/bridge"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/config"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/configdb"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/influxdb"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/logging"
	"github.com/atrium-controls/storage-bridge/internal/infrastructure/timescale"
	"github.com/atrium-controls/storage-bridge/internal/ingest"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path. The file is optional; environment
// variables alone are enough to run.
const defaultConfigPath = "configs/bridge.yaml"

// startupRetryDelay is the wait between attempts to reach the config
// store and TimescaleDB at startup. Retried until the context ends.
const startupRetryDelay = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting storage bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
		"pid", os.Getpid(),
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	// Both stores must be reachable before ingestion can start; retry
	// forever rather than crash-loop, the process degrades gracefully.
	store, err := waitForConfigStore(ctx, cfg.ConfigDB, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing config store connection")
		store.Close()
	}()
	log.Info("config store connected", "host", cfg.ConfigDB.Host, "port", cfg.ConfigDB.Port)

	sink, err := waitForTimescale(ctx, cfg.Timescale, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing timescale connection")
		sink.Close()
	}()
	log.Info("timescale connected", "host", cfg.Timescale.Host, "port", cfg.Timescale.Port)

	pipeline := ingest.NewPipeline(sink, log.With("component", "ingest"))
	manager := bridge.NewManager(store, pipeline.HandleMessage, log.With("component", "bridge"))

	// Optional stats mirror.
	metrics, err := influxdb.Connect(ctx, cfg.Metrics)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("stats mirror disabled")
	case err != nil:
		// Self-telemetry is not worth blocking ingestion over.
		log.Warn("stats mirror unavailable, continuing without it", "error", err)
	default:
		defer func() {
			log.Info("closing stats mirror")
			if closeErr := metrics.Close(); closeErr != nil {
				log.Error("error closing stats mirror", "error", closeErr)
			}
		}()
		metrics.SetOnError(func(err error) {
			log.Error("stats mirror write error", "error", err)
		})
		go reportStats(ctx, metrics, pipeline, manager, cfg.MetricsInterval())
		log.Info("stats mirror connected", "url", cfg.Metrics.URL, "bucket", cfg.Metrics.Bucket)
	}

	log.Info("initialisation complete, entering reconciliation loop")

	// Blocks until shutdown; closes the broker session on the way out.
	manager.Run(ctx, cfg.ConfigCheckInterval(), cfg.RetryTickInterval())

	stats := pipeline.Stats()
	log.Info("storage bridge stopped",
		"received", stats.Received,
		"written", stats.Written,
		"errors", stats.Errors,
	)
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// waitForConfigStore connects to the config store, retrying until it is
// reachable or the context ends.
func waitForConfigStore(ctx context.Context, cfg config.StoreConfig, log *logging.Logger) (*configdb.Store, error) {
	for {
		store, err := configdb.Connect(ctx, cfg)
		if err == nil {
			return store, nil
		}
		log.Error("waiting for config store", "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(startupRetryDelay):
		}
	}
}

// waitForTimescale connects to TimescaleDB, retrying until it is
// reachable or the context ends.
func waitForTimescale(ctx context.Context, cfg config.StoreConfig, log *logging.Logger) (*timescale.Client, error) {
	for {
		sink, err := timescale.Connect(ctx, cfg)
		if err == nil {
			return sink, nil
		}
		log.Error("waiting for timescale", "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(startupRetryDelay):
		}
	}
}

// reportStats periodically mirrors the pipeline counters and connection
// state to InfluxDB until the context ends.
func reportStats(ctx context.Context, metrics *influxdb.Client, pipeline *ingest.Pipeline, manager *bridge.Manager, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s := pipeline.Stats()
			metrics.WriteBridgeStats(s.Received, s.Written, s.Errors,
				manager.State() == bridge.StateConnected)
		}
	}
}
