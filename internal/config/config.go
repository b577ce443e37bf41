package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Store      StoreConfig
	Search     SearchConfig
	Chat       ChatConfig
	Ranking    RankingConfig
	OpenAI     OpenAIConfig
	Cache      CacheConfig
	Queue      QueueConfig
	Scheduler  SchedulerConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// StoreConfig selects the listing store backend
type StoreConfig struct {
	Driver   string // postgres or memory
	SeedFile string // YAML seed for the memory driver
}

// SearchConfig holds listing search configuration
type SearchConfig struct {
	PageSize        int
	MaxPageSize     int
	MapDefaultLimit int
	MapMaxLimit     int
	SuggestionLimit int
}

// ChatConfig holds chat assistant configuration
type ChatConfig struct {
	LexiconFile         string
	HistoryLimit        int
	ResultLimit         int
	RecommendationLimit int
	PriceFlex           float64
}

// RankingConfig holds recommendation ranking weights
type RankingConfig struct {
	WeightRating     float64
	WeightPopularity float64
	WeightRecency    float64
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatMaxTokens       int
	ChatExtraBody       string // JSON object merged into every chat request
	EmbeddingDimensions int
	Timeout             int
	Enabled             bool
}

// CacheConfig holds search result cache configuration
type CacheConfig struct {
	Enabled          bool
	MaxSize          int64
	TTL              time.Duration
	MemcachedServers []string
	MemcachedTTL     time.Duration
}

// QueueConfig holds listing event queue configuration
type QueueConfig struct {
	URL   string
	Queue string
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	SearchLogRetentionDays int
	SearchLogPurgeSpec     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "rentsearch"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
			SeedFile: getEnv("STORE_SEED_FILE", ""),
		},
		Search: SearchConfig{
			PageSize:        getEnvAsInt("SEARCH_PAGE_SIZE", 12),
			MaxPageSize:     getEnvAsInt("SEARCH_MAX_PAGE_SIZE", 50),
			MapDefaultLimit: getEnvAsInt("MAP_DEFAULT_LIMIT", 200),
			MapMaxLimit:     getEnvAsInt("MAP_MAX_LIMIT", 500),
			SuggestionLimit: getEnvAsInt("SUGGESTION_LIMIT", 10),
		},
		Chat: ChatConfig{
			LexiconFile:         getEnv("CHAT_LEXICON_FILE", ""),
			HistoryLimit:        getEnvAsInt("CHAT_HISTORY_LIMIT", 8),
			ResultLimit:         getEnvAsInt("CHAT_RESULT_LIMIT", 8),
			RecommendationLimit: getEnvAsInt("RECOMMENDATION_LIMIT", 6),
			PriceFlex:           getEnvAsFloat("RECOMMENDATION_PRICE_FLEX", 1.2),
		},
		Ranking: RankingConfig{
			WeightRating:     getEnvAsFloat("RANK_WEIGHT_RATING", 0.5),
			WeightPopularity: getEnvAsFloat("RANK_WEIGHT_POPULARITY", 0.3),
			WeightRecency:    getEnvAsFloat("RANK_WEIGHT_RECENCY", 0.2),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.7),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 900),
			ChatExtraBody:       getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1024),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 20),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Cache: CacheConfig{
			Enabled:          getEnvAsBool("CACHE_ENABLED", true),
			MaxSize:          int64(getEnvAsInt("CACHE_MAX_SIZE", 1000)),
			TTL:              getEnvAsDuration("CACHE_TTL", 2*time.Minute),
			MemcachedServers: splitList(getEnv("MEMCACHED_SERVERS", "")),
			MemcachedTTL:     getEnvAsDuration("MEMCACHED_TTL", 5*time.Minute),
		},
		Queue: QueueConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("LISTING_EVENTS_QUEUE", "listing.events"),
		},
		Scheduler: SchedulerConfig{
			SearchLogRetentionDays: getEnvAsInt("SEARCH_LOG_RETENTION_DAYS", 90),
			SearchLogPurgeSpec:     getEnv("SEARCH_LOG_PURGE_CRON", "@daily"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want postgres or memory)", c.Store.Driver)
	}
	if c.Search.PageSize < 1 || c.Search.MaxPageSize < c.Search.PageSize {
		return fmt.Errorf("invalid page size %d/%d", c.Search.PageSize, c.Search.MaxPageSize)
	}
	if c.Search.MapDefaultLimit < 1 || c.Search.MapMaxLimit < c.Search.MapDefaultLimit {
		return fmt.Errorf("invalid map limit %d/%d", c.Search.MapDefaultLimit, c.Search.MapMaxLimit)
	}
	if c.Chat.PriceFlex < 1 {
		return fmt.Errorf("RECOMMENDATION_PRICE_FLEX must be at least 1, got %g", c.Chat.PriceFlex)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
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
		log.Printf("Warning: Invalid bool value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
