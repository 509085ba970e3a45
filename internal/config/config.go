// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for settings that are not provided.
const (
	DefaultAPIURL          = "http://localhost:8080/api"
	DefaultRefreshInterval = 5 * time.Minute
	DefaultThrottle        = 2 * time.Second
	DefaultSampleSize      = 3
	DefaultCachePath       = "bgldash.db"
	DefaultNotifyRepeat    = 15 * time.Minute
)

type Config struct {
	APIURL   string
	APIToken string

	RefreshInterval time.Duration
	AutoRefresh     bool
	Throttle        time.Duration
	SampleSize      int

	// CachePath is the SQLite cache file. Empty disables the cache.
	CachePath string

	Env      string
	LogLevel string

	// Notify enables desktop notifications; errors are always logged.
	Notify       bool
	NotifyRepeat time.Duration

	OTLPEndpoint string
	ServiceName  string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIURL:   getEnv("BGLDASH_API_URL", DefaultAPIURL),
		APIToken: getEnv("BGLDASH_API_TOKEN", ""),

		RefreshInterval: getDuration("BGLDASH_REFRESH_INTERVAL", DefaultRefreshInterval),
		AutoRefresh:     getBool("BGLDASH_AUTO_REFRESH", true),
		Throttle:        getDuration("BGLDASH_THROTTLE", DefaultThrottle),
		SampleSize:      getInt("BGLDASH_STATUS_SAMPLE_SIZE", DefaultSampleSize),

		CachePath: getEnv("BGLDASH_CACHE_PATH", DefaultCachePath),

		Env:      getEnv("BGLDASH_ENV", "development"),
		LogLevel: getEnv("BGLDASH_LOG_LEVEL", "info"),

		Notify:       getBool("BGLDASH_NOTIFY", false),
		NotifyRepeat: getDuration("BGLDASH_NOTIFY_REPEAT", DefaultNotifyRepeat),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "bgldash"),
	}
}

// IsProduction reports whether BGLDASH_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}
