// Package config loads Chronicle configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM provider identifiers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderNone      = "none"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM completion
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BedrockRegion   string

	// Bootstrap pipeline tuning
	ChunkTargetTokens  int
	ChunkOverlapRatio  float64
	MaxChunks          int
	FullContextTokens  int
	IncludeThreshold   float64
	SalvageMinThinkers int
	StrictGrounding    bool
	EnrichYears        bool
	EnrichConfidence   float64
	TokenBudget        int
	SessionTTL         time.Duration
	EvidenceGateWarn   bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "chronicle"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "timelines"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     getEnv("CHRONICLE_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("CHRONICLE_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),

		ChunkTargetTokens:  getEnvInt("BOOTSTRAP_CHUNK_TARGET_TOKENS", 1200),
		ChunkOverlapRatio:  getEnvFloat("BOOTSTRAP_CHUNK_OVERLAP_RATIO", 0.15),
		MaxChunks:          getEnvInt("BOOTSTRAP_MAX_CHUNKS", 24),
		FullContextTokens:  getEnvInt("BOOTSTRAP_FULL_CONTEXT_TOKENS", 6000),
		IncludeThreshold:   getEnvFloat("BOOTSTRAP_INCLUDE_THRESHOLD", 0.45),
		SalvageMinThinkers: getEnvInt("BOOTSTRAP_SALVAGE_MIN_THINKERS", 4),
		StrictGrounding:    getEnv("BOOTSTRAP_STRICT_GROUNDING", "false") == "true",
		EnrichYears:        getEnv("BOOTSTRAP_ENRICH_YEARS", "true") == "true",
		EnrichConfidence:   getEnvFloat("BOOTSTRAP_ENRICH_CONFIDENCE", 0.7),
		TokenBudget:        getEnvInt("BOOTSTRAP_TOKEN_BUDGET", 48000),
		SessionTTL:         getEnvDuration("BOOTSTRAP_SESSION_TTL", 24*time.Hour),
		EvidenceGateWarn:   getEnv("BOOTSTRAP_EVIDENCE_GATE_WARN", "false") == "true",

		LogFile:  getEnv("CHRONICLE_LOG_FILE", "/tmp/chronicle.log"),
		LogLevel: parseLogLevel(getEnv("CHRONICLE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
