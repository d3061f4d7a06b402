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

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Pipeline  PipelineConfig
	Scheduler SchedulerConfig
	App       AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// CacheConfig selects where embedding cache entries are persisted.
// Driver is "postgres" or "sqlite". RedisAddr is optional; when set a
// Redis hot tier sits in front of the SQL store.
type CacheConfig struct {
	Driver     string
	SQLitePath string
	RedisAddr  string
	RedisTTL   time.Duration
}

type LLMConfig struct {
	Provider       string // openai or ollama
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	EmbeddingDims  int
	Timeout        time.Duration
	RateLimit      float64 // requests per second across all model calls, 0 disables
	Burst          int
}

type PipelineConfig struct {
	RetrievalLimit     int
	RelevanceFilter    bool
	Concurrency        int
	Timeout            time.Duration
	SentenceContext    bool
	EmbedTokenBudget   int
	EmbedTokensPerChar float64
	Jurisdictions      map[string]string
	JurisdictionsFile  string
}

type SchedulerConfig struct {
	MetricsSpec string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "civicrag"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Cache: CacheConfig{
			Driver:     getEnv("EMBED_CACHE_DRIVER", "postgres"),
			SQLitePath: getEnv("EMBED_CACHE_SQLITE_PATH", "data/embeddings.db"),
			RedisAddr:  getEnv("REDIS_ADDR", ""),
			RedisTTL:   getEnvAsDuration("REDIS_EMBED_TTL", 7*24*time.Hour),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			ChatModel:      getEnv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDims:  getEnvAsInt("LLM_EMBEDDING_DIMS", 1536),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			RateLimit:      getEnvAsFloat("LLM_RATE_LIMIT", 20),
			Burst:          getEnvAsInt("LLM_RATE_BURST", 10),
		},
		Pipeline: PipelineConfig{
			RetrievalLimit:     getEnvAsInt("RETRIEVAL_LIMIT", 30),
			RelevanceFilter:    getEnvAsBool("RELEVANCE_FILTER_ENABLED", true),
			Concurrency:        getEnvAsInt("PIPELINE_CONCURRENCY", 8),
			Timeout:            getEnvAsDuration("PIPELINE_TIMEOUT", 90*time.Second),
			SentenceContext:    getEnvAsBool("HIGHLIGHT_SENTENCE_CONTEXT", true),
			EmbedTokenBudget:   getEnvAsInt("EMBED_BATCH_TOKEN_BUDGET", 8000),
			EmbedTokensPerChar: getEnvAsFloat("EMBED_TOKENS_PER_CHAR", 0.5),
			Jurisdictions:      getEnvAsMap("JURISDICTIONS"),
			JurisdictionsFile:  getEnv("JURISDICTIONS_FILE", ""),
		},
		Scheduler: SchedulerConfig{
			MetricsSpec: getEnv("METRICS_REPORT_SCHEDULE", "0 */5 * * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	// Entries from JURISDICTIONS override the file.
	if cfg.Pipeline.JurisdictionsFile != "" {
		fromFile, err := loadJurisdictionsFile(cfg.Pipeline.JurisdictionsFile)
		if err != nil {
			return nil, err
		}
		for id, desc := range cfg.Pipeline.Jurisdictions {
			fromFile[id] = desc
		}
		cfg.Pipeline.Jurisdictions = fromFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	switch c.Cache.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("EMBED_CACHE_DRIVER must be postgres or sqlite, got %q", c.Cache.Driver)
	}
	if c.Cache.Driver == "sqlite" && c.Cache.SQLitePath == "" {
		return fmt.Errorf("EMBED_CACHE_SQLITE_PATH is required when EMBED_CACHE_DRIVER=sqlite")
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "ollama":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or ollama, got %q", c.LLM.Provider)
	}

	if c.LLM.EmbeddingDims <= 0 {
		return fmt.Errorf("LLM_EMBEDDING_DIMS must be positive")
	}
	if c.Pipeline.RetrievalLimit <= 0 {
		return fmt.Errorf("RETRIEVAL_LIMIT must be positive")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("PIPELINE_CONCURRENCY must be positive")
	}
	if c.Pipeline.EmbedTokenBudget <= 0 {
		return fmt.Errorf("EMBED_BATCH_TOKEN_BUDGET must be positive")
	}
	if c.Pipeline.EmbedTokensPerChar <= 0 {
		return fmt.Errorf("EMBED_TOKENS_PER_CHAR must be positive")
	}

	return nil
}

// DebugLogging reports whether LOG_LEVEL asks for debug output.
func (c *Config) DebugLogging() bool {
	return strings.EqualFold(c.App.LogLevel, "debug")
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
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
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
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
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
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
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
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsMap parses "id=description;id2=description" pairs.
func getEnvAsMap(key string) map[string]string {
	out := map[string]string{}
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return out
	}

	for _, pair := range strings.Split(valueStr, ";") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			log.Printf("Warning: Ignoring malformed %s entry %q", key, pair)
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}
