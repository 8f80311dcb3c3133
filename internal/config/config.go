package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // PostgreSQL with the pgvector extension
	Version     string
	LogLevel    string

	OpenAIKey    string
	AnthropicKey string
	OllamaHost   string

	LLMProvider      string  // openai, anthropic or ollama
	LLMModel         string  // provider-specific model name (empty = provider default)
	LLMTimeout       int     // generation timeout in seconds
	LLMMaxTokens     int     // answer length cap
	LLMTemperature   float64 // sampling temperature for answer generation
	EmbeddingTimeout int     // embedding API timeout in seconds

	TopK                int     // default number of messages retrieved per query
	SimilarityThreshold float64 // default semantic similarity floor
	HighConfidence      float64 // top score above this => high confidence
	MediumConfidence    float64 // top score above this => medium confidence
	CountingLimit       int     // minimum search width for counting questions
	CountingThreshold   float64 // similarity floor cap for counting questions

	QueryCacheTTLSeconds int // 0 disables the query response cache
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),

		LLMProvider:      getEnv("LLM_PROVIDER", "openai"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		LLMTimeout:       getEnvInt("LLM_TIMEOUT", 120), // Generation is the dominant latency source
		LLMMaxTokens:     getEnvInt("LLM_MAX_TOKENS", 500),
		LLMTemperature:   getEnvFloat("LLM_TEMPERATURE", 0.7),
		EmbeddingTimeout: getEnvInt("EMBEDDING_TIMEOUT", 30),

		TopK:                getEnvInt("RAG_TOP_K", 5),
		SimilarityThreshold: getEnvFloat("RAG_SIMILARITY_THRESHOLD", 0.5),
		HighConfidence:      getEnvFloat("RAG_HIGH_CONFIDENCE", 0.8),
		MediumConfidence:    getEnvFloat("RAG_MEDIUM_CONFIDENCE", 0.6),
		CountingLimit:       getEnvInt("RAG_COUNTING_LIMIT", 50),
		CountingThreshold:   getEnvFloat("RAG_COUNTING_THRESHOLD", 0.25),

		QueryCacheTTLSeconds: getEnvInt("QUERY_CACHE_TTL_SECONDS", 0),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float with a default fallback
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "mailmind").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
