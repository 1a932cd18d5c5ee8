package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Session handling
	SessionTTL              time.Duration // sliding window, pushed forward on each successful validation
	RetrievalRequireSession bool          // false exposes /retrieval/context anonymously
	WidgetSecret            string        // signs short-lived embed widget tokens
	BcryptCost              int

	// Retrieval
	ContextLimit    int // default top-K when the caller omits a limit
	MaxQueryLength  int
	MaxDocuments    int // newest documents considered per retrieval call
	PrimaryTimeout  time.Duration
	MaxChunkSize    int
	ChunkOverlap    int
	MinChunkSize    int
	IngestRatePerSec float64

	// Fallback registry policy
	FallbackCapacity int           // per-domain entry cap, 0 disables
	FallbackTTL      time.Duration // sweep cutoff, 0 disables
	SweepInterval    time.Duration

	// Redis (rate limiting + ingestion queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/retrieval_core"),
		DBName:   getEnv("DB_NAME", "retrieval_core"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		SessionTTL:              getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		RetrievalRequireSession: getEnvBool("RETRIEVAL_REQUIRE_SESSION", true),
		WidgetSecret:            getEnv("WIDGET_SECRET", ""),
		BcryptCost:              getEnvInt("BCRYPT_COST", 12),

		ContextLimit:     getEnvInt("CONTEXT_LIMIT", 6),
		MaxQueryLength:   getEnvInt("MAX_QUERY_LENGTH", 200),
		MaxDocuments:     getEnvInt("MAX_DOCUMENTS", 25),
		PrimaryTimeout:   getEnvDuration("PRIMARY_TIMEOUT", 3*time.Second),
		MaxChunkSize:     getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize:     getEnvInt("MIN_CHUNK_SIZE", 100),
		IngestRatePerSec: getEnvFloat64("INGEST_RATE_PER_SEC", 2.0),

		FallbackCapacity: getEnvInt("FALLBACK_CAPACITY", 1024),
		FallbackTTL:      getEnvDuration("FALLBACK_TTL", 0),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Anonymous retrieval still needs widget tokens to be signable
	if !cfg.RetrievalRequireSession && cfg.WidgetSecret == "" {
		return nil, fmt.Errorf("WIDGET_SECRET is required when RETRIEVAL_REQUIRE_SESSION is false")
	}

	if len(cfg.WidgetSecret) > 0 && len(cfg.WidgetSecret) < 32 {
		return nil, fmt.Errorf("WIDGET_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
