package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	"wallet/internal/log"
	"wallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")), (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting wallet-worker", "mirror_backend", cfg.MirrorBackend)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	res, err := backend.NewFactory(logger).Create(ctx, backend.MirrorFromAppConfig(cfg))
	if err != nil {
		return err
	}
	defer res.Cleanup()

	mirror := worker.NewMirrorWorker(res.Store, logger)
	logger.Info("Performing startup sync check...")
	if err := mirror.StartupSyncCheck(ctx); err != nil {
		// keep going; the next snapshot overwrites whatever is there
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, 0)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeSnapshots(gctx, mirror.HandleSnapshotMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.MetricsEnabled {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			logger.Info("Serving worker metrics", "port", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			cli.GracefulShutdown(logger, cfg.ShutdownTimeout, srv.Shutdown)
			return nil
		})
	}
	return g.Wait()
}
