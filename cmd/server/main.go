package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/api"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/metrics"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// Load reads .env first so LOG_* settings there reach the logger.
	cfg, cfgErr := config.Load()

	logger, err := logging.FromEnv()
	if err != nil {
		panic(err)
	}
	logging.SetGlobal(logger)
	defer logger.Sync()

	if cfgErr != nil {
		logger.Fatal("invalid configuration", zap.Error(cfgErr))
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewPrometheusCollector("ledger")
	httpMetrics := metrics.NewHTTPMetrics("ledger")
	registry.MustRegister(ledgerMetrics, httpMetrics)

	opts := []ledger.Option{
		ledger.WithMetrics(ledgerMetrics),
		ledger.WithLogger(logger),
	}
	if cfg.EventsEnabled() {
		publisher := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.KafkaBrokers,
			TopicPrefix:  cfg.KafkaPrefix,
			WriteTimeout: 5 * time.Second,
		}, logger)
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher))
		logger.Info("event publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	ledgerService := ledger.NewLedger(store, opts...)

	router := api.NewRouter(api.NewHandler(ledgerService, logger), api.RouterConfig{
		JWTSecret: []byte(cfg.JWTSecret),
		Metrics:   httpMetrics,
		Gatherer:  registry,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
