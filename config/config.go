package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	// Environment
	Env   string
	Debug bool

	// Server
	HTTPPort string

	// Cache
	CacheBackend    string // "memory" or "redis"
	CacheTTLSeconds int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka (optional event mirror; empty brokers = disabled)
	KafkaBrokers []string
	KafkaTopic   string

	// Scheduler intervals (seconds)
	RefreshInterval   int
	BroadcastInterval int

	// Upstream base URLs (overridable for tests)
	DexScreenerURL   string
	GeckoTerminalURL string
	RaydiumURL       string
	CoinGeckoURL     string

	// Upstream admission control
	RateLimitCapacity      int
	RateLimitWindowSeconds int
	RetryMaxAttempts       int
}

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	// Load .env file if it exists; absence is fine, env vars still apply
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		Env:   getEnv("APP_ENV", "local"),
		Debug: getEnvAsBool("DEBUG", false),

		// Server
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		// Cache
		CacheBackend:    getEnv("CACHE_BACKEND", "memory"),
		CacheTTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 60),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Kafka
		KafkaBrokers: getEnvAsSlice("KAFKA_BROKERS", nil, ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "token-events"),

		// Scheduler
		RefreshInterval:   getEnvAsInt("REFRESH_INTERVAL_SECONDS", 120),
		BroadcastInterval: getEnvAsInt("BROADCAST_INTERVAL_SECONDS", 15),

		// Upstreams
		DexScreenerURL:   getEnv("DEXSCREENER_URL", "https://api.dexscreener.com"),
		GeckoTerminalURL: getEnv("GECKOTERMINAL_URL", "https://api.geckoterminal.com/api/v2"),
		RaydiumURL:       getEnv("RAYDIUM_URL", "https://api-v3.raydium.io"),
		CoinGeckoURL:     getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3"),

		RateLimitCapacity:      getEnvAsInt("RATE_LIMIT_CAPACITY", 30),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RetryMaxAttempts:       getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
	}

	return cfg
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}
