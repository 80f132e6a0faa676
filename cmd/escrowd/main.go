package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"escrowchain/config"
	"escrowchain/core"
	"escrowchain/core/events"
	"escrowchain/core/state"
	"escrowchain/integrations/exports"
	"escrowchain/integrations/webhooks"
	"escrowchain/native/common"
	"escrowchain/observability/logging"
	telemetry "escrowchain/observability/otel"
	"escrowchain/rpc"
	"escrowchain/storage"
)

const serviceName = "escrowd"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	allowMigrate := flag.Bool("allow-migrate", false, "Allow starting with a mismatched state schema (manual migrations only)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.SetupWithOptions(logging.Options{
		Service: serviceName,
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *allowMigrate); err != nil {
		logger.Error("escrowd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("escrowd stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, allowMigrate bool) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := state.EnsureStateVersion(db, allowMigrate); err != nil {
		return err
	}

	node, err := core.NewNode(db)
	if err != nil {
		return err
	}
	node.SetLogger(logger)
	node.SetPauses(common.NewPauseSet(cfg.PausedModules))

	sinks := events.Multi{}
	var store *exports.Store
	if dsn := eventStoreDSN(cfg); dsn != "" {
		store, err = exports.Open(dsn)
		if err != nil {
			return fmt.Errorf("open event store: %w", err)
		}
		defer store.Close()
		store.SetLogger(logger)
		sinks = append(sinks, store)
	}
	if cfg.Webhook.Enabled() {
		dispatcher, err := webhooks.NewDispatcher(cfg.Webhook.URL, []byte(cfg.Webhook.Secret),
			webhooks.WithTypes(cfg.Webhook.Types...),
			webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, 0, 0),
			webhooks.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("configure webhook: %w", err)
		}
		defer dispatcher.Close()
		sinks = append(sinks, dispatcher)
	}
	node.SetEmitter(sinks)

	allocations, err := cfg.GenesisAllocations()
	if err != nil {
		return err
	}
	applied, err := node.ApplyGenesis(ctx, cfg.Tokens, allocations)
	if err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}
	if applied {
		logger.Info("genesis applied", slog.Int("tokens", len(cfg.Tokens)), slog.Int("allocations", len(allocations)))
	}

	server, err := rpc.NewServer(node, rpc.ServerConfig{
		AuthSecret:         cfg.AuthSecret,
		AuthIssuer:         cfg.AuthIssuer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadTimeout:        time.Duration(cfg.RPCReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(cfg.RPCWriteTimeout) * time.Second,
		TrustedProxies:     cfg.RPCTrustedProxies,
	})
	if err != nil {
		return err
	}
	server.SetLogger(logger)
	if store != nil {
		server.SetEventStore(store)
	}

	if err := server.Serve(ctx, cfg.RPCAddress); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// eventStoreDSN resolves relative sqlite paths against the data directory.
func eventStoreDSN(cfg *config.Config) string {
	dsn := strings.TrimSpace(cfg.EventStoreDSN)
	if dsn == "" {
		return ""
	}
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.HasPrefix(lower, "file:") || dsn == ":memory:" || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(cfg.DataDir, dsn)
}
