package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-harvester-go/internal/config"
	"github.com/user/yt-harvester-go/internal/crawler"
	"github.com/user/yt-harvester-go/internal/metrics"
	"github.com/user/yt-harvester-go/internal/query"
	"github.com/user/yt-harvester-go/internal/server"
	"github.com/user/yt-harvester-go/internal/source"
	"github.com/user/yt-harvester-go/internal/store"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mysqlStore, err := store.NewMySQLStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	ytSource := source.NewYouTubeSource(&source.Config{
		BaseURL:        cfg.Source.BaseURL,
		RateLimitBytes: cfg.Source.RateLimitBytes,
		Timeout:        cfg.Source.Timeout,
		UserAgent:      cfg.Source.UserAgent,
	})
	log.Info().
		Int("rateLimitBytes", cfg.Source.RateLimitBytes).
		Dur("timeout", cfg.Source.Timeout).
		Msg("Metadata source initialized")

	gen, err := newGenerator(&cfg.Crawler)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create query generator")
	}
	log.Info().Str("strategy", cfg.Crawler.QueryStrategy).Msg("Query generator initialized")

	aggregator := metrics.NewAggregator(mysqlStore, cfg.Metrics.SnapshotPath)

	crawl := crawler.New(ytSource, gen, mysqlStore, aggregator, crawler.Options{
		Every:       cfg.Metrics.Every,
		Archive:     cfg.Archive.Enabled,
		MaxAttempts: cfg.Crawler.MaxAttempts,
		RetryDelay:  cfg.Crawler.RetryDelay,
	})

	httpServer := server.NewServer(mysqlStore, cfg.Metrics.SnapshotPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	crawlDone := make(chan error, 1)
	go func() {
		crawlDone <- crawl.Run(ctx)
	}()

	log.Info().Msg("Harvester started successfully")

	crawlExited := false
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-crawlDone:
		crawlExited = true
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Crawl loop terminated")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop the crawl loop; the in-flight record finishes first
	cancel()
	if !crawlExited {
		select {
		case <-crawlDone:
			log.Info().Int64("processed", crawl.Processed()).Msg("Crawl loop stopped")
		case <-shutdownCtx.Done():
			log.Warn().Msg("Crawl loop did not stop in time")
		}
	}

	// 2. Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Close database connection pool
	if err := mysqlStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	log.Info().Msg("Graceful shutdown completed")
}

// newGenerator builds the query generator selected by configuration
func newGenerator(cfg *config.CrawlerConfig) (query.Generator, error) {
	switch cfg.QueryStrategy {
	case "fixed":
		return query.NewFixedList(cfg.Queries)
	case "random":
		var vocab []string
		if cfg.VocabFile != "" {
			words, err := query.LoadVocab(cfg.VocabFile)
			if err != nil {
				return nil, err
			}
			vocab = words
		}
		return query.NewRandomSample(vocab, 0), nil
	default:
		return nil, errors.New("unknown query strategy " + cfg.QueryStrategy)
	}
}
