package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LLMConfig configures one reasoning provider
type LLMConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// Enabled reports whether enough is set to build the provider
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Model != ""
}

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	ImageFolder             string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string

	EmbeddingURL        string
	EmbeddingDimensions int
	EmbeddingTimeout    time.Duration

	SimilarityThreshold float64
	// MatchMode is "all" (every query term must appear) or "any" (at least one term).
	// "all" is strict: "blue bottle dented cap" does not reach "blue water bottle with dent".
	MatchMode           string
	MatchLimit          int

	PrimaryLLM     LLMConfig
	SecondaryLLM   LLMConfig
	LLMTimeout     time.Duration
	ClaimRateLimit float64
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		ImageFolder:             getEnv("IMAGE_FOLDER", "items"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "reunite"),

		EmbeddingURL:        getEnv("EMBEDDING_URL", "http://localhost:8000/embed"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 512),
		EmbeddingTimeout:    getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second),

		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.20),
		MatchMode:           getEnv("MATCH_MODE", "all"),
		MatchLimit:          getEnvInt("MATCH_LIMIT", 5),

		PrimaryLLM: LLMConfig{
			Provider:  getEnv("LLM_PRIMARY_PROVIDER", "deepseek"),
			Model:     getEnv("LLM_PRIMARY_MODEL", "deepseek-chat"),
			APIKey:    getEnv("LLM_PRIMARY_API_KEY", ""),
			BaseURL:   getEnv("LLM_PRIMARY_BASE_URL", ""),
			MaxTokens: getEnvInt("LLM_PRIMARY_MAX_TOKENS", 0),
		},
		SecondaryLLM: LLMConfig{
			Provider:  getEnv("LLM_SECONDARY_PROVIDER", "openrouter"),
			Model:     getEnv("LLM_SECONDARY_MODEL", ""),
			APIKey:    getEnv("LLM_SECONDARY_API_KEY", ""),
			BaseURL:   getEnv("LLM_SECONDARY_BASE_URL", ""),
			MaxTokens: getEnvInt("LLM_SECONDARY_MAX_TOKENS", 0),
		},
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 15*time.Second),
		ClaimRateLimit: getEnvFloat("CLAIM_RATE_LIMIT", 2),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw)
		return defaultValue
	}
	return v
}
