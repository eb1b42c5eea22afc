package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"chiayu/coursetrendworker/config"
	"chiayu/coursetrendworker/internal/scraper"
	"chiayu/coursetrendworker/logger"
	"chiayu/coursetrendworker/services/cache"
	"chiayu/coursetrendworker/services/firecrawl"
	"chiayu/coursetrendworker/services/publisher"
	"chiayu/coursetrendworker/services/store"
	"chiayu/coursetrendworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	discover := flag.Bool("discover", false, "rebuild the course roster from the listing pages before updating counts")
	pruneNull := flag.Bool("prune-null", false, "delete snapshot rows with a null student count and exit")
	pruneURL := flag.String("prune-url", "", "delete snapshot rows whose course URL contains this fragment and exit")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Bool("discover", *discover).
		Msg("Starting course trend worker")

	// Set up context cancelled on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	client := firecrawl.NewClient(cfg.FirecrawlBaseURL, cfg.FirecrawlAPIKey)

	rowStore, err := store.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the row store")
	}
	defer rowStore.Close()

	// The block cache and the publisher are optional collaborators
	var blockCache cache.CacheService
	if cfg.MemcacheAddr != "" {
		blockCache = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
	}

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		defer redisPublisher.Close()
		pub = redisPublisher
		log.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Str("stream", cfg.RedisStream).
			Msg("Connected to Redis")
	}

	w := worker.NewWorker(
		&scraper.Discoverer{Client: client, Cache: blockCache, BlockTime: cfg.BlockTime},
		&scraper.Updater{Client: client, Cache: blockCache, BlockTime: cfg.BlockTime},
		scraper.Platforms(),
		rowStore,
		pub,
		cfg.RosterPath,
	)

	var runErr error
	switch {
	case *pruneNull:
		var pruned int
		pruned, runErr = w.PruneNullCounts()
		if runErr == nil {
			log.Info().Int("rows", pruned).Msg("Null-count rows pruned")
		}
	case *pruneURL != "":
		var pruned int
		pruned, runErr = w.PruneURLFragment(*pruneURL)
		if runErr == nil {
			log.Info().Int("rows", pruned).Str("fragment", *pruneURL).Msg("Matching rows pruned")
		}
	default:
		runErr = w.Run(ctx, *discover)
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Run failed")
		rowStore.Close()
		os.Exit(1)
	}

	log.Info().Msg("Run finished")
}
