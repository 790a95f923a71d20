package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/bitquery"
	"github.com/pulsescan/pulse-feed/internal/cache"
	"github.com/pulsescan/pulse-feed/internal/config"
	"github.com/pulsescan/pulse-feed/internal/feed"
	"github.com/pulsescan/pulse-feed/internal/flags"
)

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main runs the feed daemon: it keeps the three live token collections
// current from the streaming provider and mirrors them into Redis for the
// API server to read.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.StreamToken == "" {
		logger.Fatal("STREAM_TOKEN is required for the feed daemon")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	feedCache := cache.NewFeedCache(rclient, cfg.FeedCacheTTL, logger)
	pubsub := cache.NewPubSub(rclient, logger)

	flagStore, err := flags.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create flags store")
	}

	// ClickHouse archive is optional: the live feed works without history.
	var archiver feed.Archiver
	archive, err := cache.NewTokenArchive(ctx, cache.TokenArchiveOptions{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
	})
	if err != nil {
		logger.WithError(err).Warn("token archive unavailable, continuing without history")
	} else {
		archiver = archive
		defer func() {
			_ = archive.Close()
		}()
	}

	mux := bitquery.NewMultiplexer(bitquery.MultiplexerConfig{
		WSURL:       cfg.StreamWSURL,
		Token:       cfg.StreamToken,
		BaseDelay:   cfg.ReconnectBase,
		MaxAttempts: cfg.MaxReconnectAttempts,
		Logger:      logger,
	})
	snapshots := bitquery.NewHTTPClient(cfg.StreamHTTPURL, cfg.StreamToken)

	store := feed.NewStore(feedCache, logger)
	svc := feed.NewService(feed.ServiceDeps{
		Store:     store,
		Stream:    mux,
		Snapshots: snapshots,
		Publisher: pubsub,
		Archiver:  archiver,
		Flags:     flagStore,
		Logger:    logger,
	})

	logger.Info("feed daemon starting")
	svc.Start(ctx)

	<-sigCh
	logger.Info("shutting down")
	svc.Stop()
	cancel()
}
