package config

import (
	"os"
	"strconv"
	"time"

	"chiayu/coursetrendworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Extraction service configuration
	FirecrawlAPIKey  string
	FirecrawlBaseURL string

	// Row store configuration
	PostgresDSN string

	// Redis configuration (snapshot publisher, optional)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration (fetch block cache, optional)
	MemcacheAddr string

	// Cooldown applied to a platform after the extraction service
	// rate-limits it
	BlockTime time.Duration

	// Roster cache file
	RosterPath string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	blockSeconds, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "600"))

	return &Config{
		FirecrawlAPIKey:      getEnv("FIRECRAWL_API_KEY", ""),
		FirecrawlBaseURL:     getEnv("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		PostgresDSN:          getEnv("POSTGRES_DSN", "postgres://localhost:5432/coursetrend?sslmode=disable"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "course_snapshots"),
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            time.Duration(blockSeconds) * time.Second,
		RosterPath:           getEnv("ROSTER_PATH", "data/course_list.json"),
		Environment:          getEnv("COURSETREND_ENVIRONMENT", "development"),
	}
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.FirecrawlAPIKey == "" {
		return errors.NewConfiguration("FIRECRAWL_API_KEY is required", nil)
	}
	if c.PostgresDSN == "" {
		return errors.NewConfiguration("POSTGRES_DSN is required", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
