package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"sjsage522/ebookdealworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Output paths
	DataPath     string
	HTMLPath     string
	MarkdownPath string
	ErrorLogPath string
	MetricsFile  string

	// Platform list; empty SourcesFile means the built-in defaults
	SourcesFile string
	Sources     []Source

	// Fetch configuration
	FetchTimeout   time.Duration
	UserAgent      string
	RateLimitBlock time.Duration

	// Redis configuration, publishing is disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration, the rate-limit gate is disabled when empty
	MemcacheAddr string

	// Zero runs once and exits
	CrawlInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DataPath:             getEnv("DEALS_JSON_PATH", "data/deals.json"),
		HTMLPath:             getEnv("INDEX_HTML_PATH", "index.html"),
		MarkdownPath:         getEnv("DEALS_MD_PATH", ""),
		ErrorLogPath:         getEnv("ERROR_LOG_PATH", "data/error.log"),
		MetricsFile:          getEnv("METRICS_FILE", ""),
		SourcesFile:          getEnv("SOURCES_FILE", ""),
		FetchTimeout:         getSeconds("FETCH_TIMEOUT_SECONDS", 25),
		UserAgent:            getEnv("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; ebook-promotions-bot/1.0)"),
		RateLimitBlock:       getSeconds("RATE_LIMIT_BLOCK_SECONDS", 600),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "ebookdeals"),
		RedisStreamCount:     getInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 100),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CrawlInterval:        getSeconds("CRAWL_INTERVAL_SECONDS", 0),
		Environment:          getEnv("EBOOKDEAL_ENVIRONMENT", "development"),
	}
}

// LoadSources fills Sources from SourcesFile, or the built-in list when unset
func (c *Config) LoadSources() error {
	if c.SourcesFile == "" {
		c.Sources = DefaultSources()
		return nil
	}

	sources, err := LoadSourcesFile(c.SourcesFile)
	if err != nil {
		return errors.NewConfiguration("failed to load sources from "+c.SourcesFile, err)
	}
	c.Sources = sources
	return nil
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("DEALS_JSON_PATH must not be empty")
	}
	if c.HTMLPath == "" {
		return fmt.Errorf("INDEX_HTML_PATH must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.CrawlInterval < 0 {
		return fmt.Errorf("CRAWL_INTERVAL_SECONDS must not be negative")
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive")
	}
	return ValidateSources(c.Sources)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
