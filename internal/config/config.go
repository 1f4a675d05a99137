package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	Env             string
	HTTPPort        string
	JWTSecret       string
	TokenExpiration time.Duration

	Store     StoreConfig
	Postgres  PostgresConfig
	SQLite    SQLiteConfig
	Typesense TypesenseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	RAG       RAGConfig
	OTel      OTelConfig
}

// StoreConfig selects the storage backends by registry name.
type StoreConfig struct {
	Backend        string // postgres, sqlite or typesense
	HistoryBackend string // empty means same as Backend
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

type SQLiteConfig struct {
	Path string
}

type TypesenseConfig struct {
	URL            string
	APIKey         string
	DocsCollection string
	ChatCollection string
}

type RedisConfig struct {
	URL       string
	KeyPrefix string
}

type LLMConfig struct {
	Provider  string // "anthropic" or "openai"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

// RAGConfig bounds one conversational turn.
type RAGConfig struct {
	TopK           int
	MaxTopK        int
	MaxBodyChars   int
	HistoryWindow  int
	DisplayHistory int
	Topic          string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Don't fail if .env is not present, might be in production
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using environment variables only", "error", err)
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "anthropic"))

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		TokenExpiration: time.Hour * time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)),
		Store: StoreConfig{
			Backend:        strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
			HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", "")),
		},
		Postgres: PostgresConfig{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "seocoach.db"),
		},
		Typesense: TypesenseConfig{
			URL:            getEnv("TYPESENSE_URL", ""),
			APIKey:         getEnv("TYPESENSE_API_KEY", ""),
			DocsCollection: getEnv("TYPESENSE_DOCS_COLLECTION", "docs"),
			ChatCollection: getEnv("TYPESENSE_CHAT_COLLECTION", "chat"),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "chat"),
		},
		LLM: LLMConfig{
			Provider:  provider,
			APIKey:    getEnv("LLM_API_KEY", providerKey(provider)),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", defaultModel(provider)),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 800),
		},
		RAG: RAGConfig{
			TopK:           getEnvInt("RAG_TOP_K", 5),
			MaxTopK:        getEnvInt("RAG_MAX_TOP_K", 10),
			MaxBodyChars:   getEnvInt("RAG_MAX_BODY_CHARS", 1200),
			HistoryWindow:  getEnvInt("RAG_HISTORY_WINDOW", 20),
			DisplayHistory: getEnvInt("RAG_DISPLAY_HISTORY", 50),
			Topic:          getEnv("RAG_TOPIC", "SEO"),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "seocoach"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("LLM_PROVIDER must be anthropic or openai, got %q", c.LLM.Provider)
	}
	if c.RAG.MaxTopK < 1 {
		return fmt.Errorf("RAG_MAX_TOP_K must be at least 1, got %d", c.RAG.MaxTopK)
	}
	if c.RAG.TopK < 1 || c.RAG.TopK > c.RAG.MaxTopK {
		return fmt.Errorf("RAG_TOP_K must be within 1..%d, got %d", c.RAG.MaxTopK, c.RAG.TopK)
	}
	if c.RAG.MaxBodyChars < 1 {
		return fmt.Errorf("RAG_MAX_BODY_CHARS must be positive, got %d", c.RAG.MaxBodyChars)
	}
	if c.RAG.HistoryWindow < 0 || c.RAG.DisplayHistory < 0 {
		return fmt.Errorf("RAG_HISTORY_WINDOW and RAG_DISPLAY_HISTORY must not be negative")
	}
	if c.Store.Backend == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
	}
	if c.Store.Backend == "typesense" && c.Typesense.URL == "" {
		return fmt.Errorf("TYPESENSE_URL is required when STORE_BACKEND=typesense")
	}
	return nil
}

// HistoryBackendName returns the backend that keeps chat history.
func (c *Config) HistoryBackendName() string {
	if c.Store.HistoryBackend == "" {
		return c.Store.Backend
	}
	return c.Store.HistoryBackend
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func providerKey(provider string) string {
	if provider == "openai" {
		return getEnv("OPENAI_API_KEY", "")
	}
	return getEnv("ANTHROPIC_API_KEY", "")
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "claude-3-5-sonnet-latest"
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		slog.Warn("invalid integer env value, using default", "key", key, "value", value, "default", fallback)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		slog.Warn("invalid integer env value, using default", "key", key, "value", value, "default", fallback)
	}
	return fallback
}
