package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	"wallet/internal/core"
	apphttp "wallet/internal/http"
	"wallet/internal/ledger"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/persist"
)

const amqpDialAttempts = 3

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	initial, err := cfg.InitialBalanceMoney()
	if err != nil {
		return err
	}

	backendCfg := backend.FromAppConfig(cfg)
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	snap := persist.LoadOrDefault(loadCtx, res.Store, core.DefaultSnapshot(initial), logger)
	cancel()

	store := ledger.New(initial)
	if err := store.Restore(snap); err != nil {
		return err
	}
	metrics.ObserveSnapshot(store.Snapshot())
	store.Subscribe(metrics.ObserveSnapshot)

	writer := persist.NewAsyncWriter(res.Store, logger,
		persist.WithName(backendCfg.Type.String()),
		persist.WithSaveHook(metrics.RecordSave))
	store.Subscribe(writer.Notify)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		Currency:        cfg.Currency,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
		RateLimitRPM:    cfg.RateLimitRPM,
		MetricsEnabled:  cfg.MetricsEnabled,
		Ready:           res.Ping,
	}, store, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	// the HTTP server stops first so no mutation lands after the final flush
	shutdown := []func(context.Context) error{srv.Shutdown, writer.Close}

	if cfg.AMQPURL != "" {
		client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, amqpDialAttempts)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without snapshot publishing", log.FieldError, err)
		} else {
			publisher := persist.NewAsyncWriter(persist.SaverFunc(client.PublishSnapshot), logger,
				persist.WithName("amqp"),
				persist.WithSaveHook(metrics.RecordSave))
			store.Subscribe(publisher.Notify)
			shutdown = append(shutdown, publisher.Close, func(context.Context) error { return client.Close() })
			logger.Info("Publishing snapshots", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting wallet server", "port", cfg.Port, log.FieldBackend, backendCfg.Type,
			log.FieldVersion, snap.Version, log.FieldBalanceCents, snap.Balance.Cents)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.GracefulShutdown(logger, cfg.ShutdownTimeout, shutdown...)
		return nil
	})
	return g.Wait()
}
