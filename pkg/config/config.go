package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (audit log, optional)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Routing
	Route RouteConfig

	// Venues
	Kalshi      VenueConfig
	Polymarket  VenueConfig
	Hyperliquid VenueConfig
	Yahoo       VenueConfig
	Angel       VenueConfig

	// Handle -> id lookup store
	LookupDBPath string

	// Judge (LLM)
	OpenAI OpenAIConfig

	// Outer collaborators
	Kafka    KafkaConfig
	Telegram TelegramConfig

	// Files
	StrategyFile  string
	WatchlistFile string
	WatchSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether an audit database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// RouteConfig holds fan-out and normalization settings
type RouteConfig struct {
	Timeout           time.Duration // 요청당 전체 wall-clock 제한
	ReferenceNotional float64       // liquidity check notional (USD)
	HoldingDays       int           // funding/scenario planning horizon
	Concurrency       int
}

// VenueConfig holds per-venue endpoint and throttling settings
type VenueConfig struct {
	BaseURL   string
	RateLimit float64 // requests per second, 0 = unlimited
}

// OpenAIConfig holds the optional LLM judge configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// KafkaConfig holds the result publisher configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TelegramConfig holds watchlist notification settings
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Route: RouteConfig{
			Timeout:           getEnvAsDuration("ROUTE_TIMEOUT", "20s"),
			ReferenceNotional: getEnvAsFloat("ROUTE_REFERENCE_NOTIONAL", 100_000),
			HoldingDays:       getEnvAsInt("ROUTE_HOLDING_DAYS", 30),
			Concurrency:       getEnvAsInt("ROUTE_CONCURRENCY", 8),
		},

		Kalshi: VenueConfig{
			BaseURL:   getEnv("KALSHI_BASE_URL", "https://api.elections.kalshi.com/trade-api/v2"),
			RateLimit: getEnvAsFloat("KALSHI_RATE_LIMIT", 10),
		},
		Polymarket: VenueConfig{
			BaseURL:   getEnv("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
			RateLimit: getEnvAsFloat("POLYMARKET_RATE_LIMIT", 10),
		},
		Hyperliquid: VenueConfig{
			BaseURL:   getEnv("HYPERLIQUID_BASE_URL", "https://api.hyperliquid.xyz"),
			RateLimit: getEnvAsFloat("HYPERLIQUID_RATE_LIMIT", 5),
		},
		Yahoo: VenueConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsFloat("YAHOO_RATE_LIMIT", 4),
		},
		Angel: VenueConfig{
			BaseURL:   getEnv("ANGEL_BASE_URL", "https://republic.com"),
			RateLimit: getEnvAsFloat("ANGEL_RATE_LIMIT", 2),
		},

		LookupDBPath: getEnv("LOOKUP_DB_PATH", "data/lookup.db"),

		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", "30s"),
		},

		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "thesis.routes"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},

		StrategyFile:  getEnv("STRATEGY_FILE", ""),
		WatchlistFile: getEnv("WATCHLIST_FILE", "config/watchlist.yaml"),
		WatchSchedule: getEnv("WATCH_SCHEDULE", "0 */15 * * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Route.Timeout <= 0 {
		return fmt.Errorf("ROUTE_TIMEOUT must be positive")
	}

	if c.Route.ReferenceNotional <= 0 {
		return fmt.Errorf("ROUTE_REFERENCE_NOTIONAL must be positive")
	}

	if c.Route.HoldingDays <= 0 {
		return fmt.Errorf("ROUTE_HOLDING_DAYS must be positive")
	}

	if c.Route.Concurrency <= 0 {
		return fmt.Errorf("ROUTE_CONCURRENCY must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
