// Package config resolves tweetfeed settings from the environment.
//
// Values come from, in order of precedence:
// - variables already set in the process environment
// - .env.local in the working directory
// - .env in the working directory
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "https://api.twitter.com/2"
	DefaultTokenURL   = "https://api.twitter.com/oauth2/token"
	DefaultListenAddr = ":8080"
	DefaultCacheTTL   = 15 * time.Minute
)

// Config holds all tweetfeed settings.
type Config struct {
	BearerToken string
	APIKey      string
	APISecret   string
	APIURL      string
	TokenURL    string
	ConfigDir   string
	ListenAddr  string
	LogLevel    string
	LogFormat   string

	// RedisAddr enables the feed cache of "tweetfeed serve" when set.
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

// Load reads the dotenv files (missing files are ignored) and returns the
// resulting configuration with defaults applied.
func Load() *Config {
	loadDotEnvs("")
	return FromEnv()
}

func loadDotEnvs(rootPath string) {
	// godotenv never overrides variables that are already set, so the first
	// file loaded wins over later ones.
	_ = godotenv.Load(filepath.Join(rootPath, ".env.local"))
	_ = godotenv.Load(filepath.Join(rootPath, ".env"))
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		BearerToken: os.Getenv("TWEETFEED_BEARER_TOKEN"),
		APIKey:      os.Getenv("TWEETFEED_API_KEY"),
		APISecret:   os.Getenv("TWEETFEED_API_SECRET"),
		APIURL:      getenv("TWEETFEED_API_URL", DefaultAPIURL),
		TokenURL:    getenv("TWEETFEED_TOKEN_URL", DefaultTokenURL),
		ConfigDir:   getenv("TWEETFEED_CONFIG_DIR", defaultConfigDir()),
		ListenAddr:  getenv("TWEETFEED_LISTEN_ADDR", DefaultListenAddr),
		LogLevel:    getenv("TWEETFEED_LOG_LEVEL", "info"),
		LogFormat:   getenv("TWEETFEED_LOG_FORMAT", "text"),

		RedisAddr:     os.Getenv("TWEETFEED_REDIS_ADDR"),
		RedisPassword: os.Getenv("TWEETFEED_REDIS_PASSWORD"),
		CacheTTL:      getduration("TWEETFEED_CACHE_TTL", DefaultCacheTTL),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getduration ignores unparseable and non-positive values.
func getduration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func defaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tweetfeed")
}
