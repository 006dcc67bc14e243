package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cycleratio/internal/config"
	"cycleratio/internal/ingestion"
	"cycleratio/internal/metrics"
	"cycleratio/internal/numeric"
	"cycleratio/internal/parametric"
	"cycleratio/internal/persistence"
	"cycleratio/internal/scanner"
	"cycleratio/pkg/graphview"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Logging)
	log.Info().Msg("Starting cycleratio - live minimum cycle-ratio watcher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Application error")
	}

	log.Info().Msg("cycleratio shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New()
	if cfg.Metrics.Enabled {
		if err := m.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.Shutdown(shutdownCtx)
		}()
		log.Info().Int("port", cfg.Metrics.Port).Msg("Metrics server started")
	}

	store, err := persistence.NewStore(cfg.Persistence.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Str("path", cfg.Persistence.SQLitePath).Msg("SQLite initialized")

	liveGraph := graphview.New[string, parametric.CostTimeEdge[numeric.Float64]]()

	ingestionSvc := ingestion.NewService(cfg.Feed.WSURL, liveGraph, m).
		WithIntervals(cfg.Feed.ReconnectInterval, cfg.Feed.PingInterval)

	scannerSvc := scanner.New(scanner.Config{
		ScanInterval:  cfg.Scanner.ScanInterval,
		MaxIterations: cfg.Scanner.MaxIterations,
		InitialRatio:  cfg.Scanner.InitialRatio,
		NumWorkers:    cfg.Scanner.NumWorkers,
	}, liveGraph, m)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msg("Starting ingestion service...")
		return ingestionSvc.Run(gCtx)
	})

	g.Go(func() error {
		log.Info().Msg("Starting scanner...")
		return scannerSvc.Run(gCtx, ingestionSvc.Updates())
	})

	g.Go(func() error {
		return recordFindings(gCtx, scannerSvc.Findings(), store, m)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	return nil
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// recordFindings persists every discovered finding and logs it.
func recordFindings(ctx context.Context, ch <-chan scanner.Finding, store *persistence.Store, m *metrics.Metrics) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-ch:
			if !ok {
				return nil
			}

			edges := make([]string, len(f.Cycle))
			for i, e := range f.Cycle {
				edges[i] = fmt.Sprintf("%s/%s", e.Cost, e.Time)
			}

			record := persistence.FindingRecord{
				CycleKey:     f.CycleKey,
				SourceNode:   f.Source,
				Ratio:        f.Ratio.Float64(),
				Cycle:        "[" + strings.Join(edges, ",") + "]",
				DiscoveredAt: f.DiscoveredAt,
			}
			if err := store.InsertFinding(ctx, record); err != nil {
				log.Warn().Err(err).Str("source", f.Source).Msg("failed to persist finding")
			}

			if err := store.UpsertRatio(ctx, persistence.RatioRecord{
				SourceNode: f.Source,
				Ratio:      f.Ratio.Float64(),
				UpdatedAt:  f.DiscoveredAt,
			}); err != nil {
				log.Warn().Err(err).Str("source", f.Source).Msg("failed to persist ratio")
			}

			log.Info().
				Str("source", f.Source).
				Str("ratio", f.Ratio.String()).
				Int("cycle_len", len(f.Cycle)).
				Msg("CRITICAL CYCLE DETECTED")
		}
	}
}
