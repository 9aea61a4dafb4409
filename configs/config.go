// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings for the service. It is built once at startup and
// passed explicitly to the components that need it; nothing reads the
// environment after Load returns.
type Config struct {
	// AI provider configuration
	AIProvider      string // "openai" or "gemini"
	ProviderAPIKey  string
	ProviderBaseURL string
	ModelName       string
	MaxOutputTokens int
	RequestTimeout  time.Duration

	// Pricing configuration (per 1M tokens in USD)
	InputPricePerMillion  float64
	OutputPricePerMillion float64
	USDToVND              float64

	// Server configuration
	Port           string
	AllowedOrigins string

	// MongoDB configuration (project directory)
	MongoURI    string
	MongoDBName string

	// Image preprocessing settings
	EnableImagePreprocessing bool
	MaxImageDimension        int
}

// Load reads configuration from environment variables.
// A missing provider API key is not fatal here: the analyze endpoints report
// it per request so the service can still boot and serve /health.
func Load() *Config {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		AIProvider:      getEnv("AI_PROVIDER", "openai"),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", ""),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://api.openai.com/v1"),
		ModelName:       getEnv("MODEL_NAME", "gpt-4o-mini"),
		MaxOutputTokens: getEnvInt("MAX_OUTPUT_TOKENS", 1000),
		RequestTimeout:  time.Duration(getEnvInt("AI_REQUEST_TIMEOUT", 30)) * time.Second,

		InputPricePerMillion:  getEnvFloat("INPUT_PRICE_PER_MILLION", 0.15),
		OutputPricePerMillion: getEnvFloat("OUTPUT_PRICE_PER_MILLION", 0.60),
		USDToVND:              getEnvFloat("USD_TO_VND", 25400.0),

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "smartbizdb"),

		EnableImagePreprocessing: getEnvBool("ENABLE_IMAGE_PREPROCESSING", true),
		MaxImageDimension:        getEnvInt("MAX_IMAGE_DIMENSION", 2000),
	}

	if cfg.ProviderAPIKey == "" {
		log.Println("⚠️  PROVIDER_API_KEY is not set - analyze endpoints will return 500 until it is configured")
	}

	log.Println("✓ Configuration loaded successfully")
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
