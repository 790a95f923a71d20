package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Market-data provider (Bitquery EAP)
	StreamWSURL   string
	StreamHTTPURL string
	StreamToken   string

	// Feed daemon settings
	ReconnectBase        time.Duration
	MaxReconnectAttempts int
	FeedCacheTTL         time.Duration

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Jupiter settings
	JupiterBaseURL string
	JupiterAPIKey  string

	// Metadata fetcher
	MetadataRatePerSec float64
	MetadataTimeout    time.Duration

	// HTTP API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// AI settings
	OpenRouterAPIKey string
}

func Load() *Config {
	return &Config{
		// Stream
		StreamWSURL:   getEnv("STREAM_WS_URL", "wss://streaming.bitquery.io/eap"),
		StreamHTTPURL: getEnv("STREAM_HTTP_URL", "https://streaming.bitquery.io/eap"),
		StreamToken:   getEnv("STREAM_TOKEN", ""),

		// Feed
		ReconnectBase:        getDurationEnv("RECONNECT_BASE", 1*time.Second),
		MaxReconnectAttempts: getIntEnv("MAX_RECONNECT_ATTEMPTS", 5),
		FeedCacheTTL:         getDurationEnv("FEED_CACHE_TTL", 30*time.Minute),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "pulse"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Jupiter
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", "https://api.jup.ag/swap/v1"),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),

		// Metadata
		MetadataRatePerSec: getFloatEnv("METADATA_RATE_PER_SEC", 5),
		MetadataTimeout:    getDurationEnv("METADATA_TIMEOUT", 8*time.Second),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
	}
}

func (c *Config) Validate() error {
	if c.StreamWSURL == "" {
		return fmt.Errorf("STREAM_WS_URL is required")
	}
	if c.StreamHTTPURL == "" {
		return fmt.Errorf("STREAM_HTTP_URL is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.ReconnectBase <= 0 {
		return fmt.Errorf("RECONNECT_BASE must be positive")
	}
	if c.MaxReconnectAttempts < 1 {
		return fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be at least 1")
	}
	if c.FeedCacheTTL <= 0 {
		return fmt.Errorf("FEED_CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
