package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/kafka"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/adapter/sqlite"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/config"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/observability"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/pipeline"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	thresholds, err := scoring.NewThresholds(cfg.CDFAbove, cfg.CDFBelow)
	if err != nil {
		logger.Error("invalid thresholds", "error", err)
		os.Exit(1)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report sinks (feature-flagged via KAFKA_ENABLED / SQLITE_PATH).
	var publishers []pipeline.ReportPublisher
	var closers []func() error
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publishers = append(publishers, writer)
		closers = append(closers, writer.Close)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open report archive", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		publishers = append(publishers, store)
		closers = append(closers, store.Close)
		logger.Info("sqlite archive enabled", "path", cfg.SQLitePath)
	}

	p := pipeline.New(
		csvfile.DailySource{Path: cfg.DataPath},
		csvfile.ForecastSource{Path: cfg.ForecastPath},
		publishers,
		pipeline.Options{
			Fields:     cfg.ScoredFields,
			FirstYear:  cfg.FirstYear,
			EndYear:    cfg.EndYear,
			Baselines:  cfg.Baselines,
			Thresholds: thresholds,
			Window:     cfg.Window,
			Trials:     cfg.Trials,
			Seed:       seed,
		},
		logger,
		metrics,
	)

	var srv *httpadapter.Server
	if cfg.Serve {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("scoring run starting",
		"window", cfg.Window.String(),
		"fields", cfg.ScoredFields,
		"trials", cfg.Trials,
		"seed", seed,
	)
	_, runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("scoring run failed", "error", runErr)
	}

	if srv != nil && runErr == nil {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
	logger.Info("shutdown complete")

	if runErr != nil {
		os.Exit(1)
	}
}
