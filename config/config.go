// Package config loads service configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lemore/letgo-buddy/internal/buddy"
)

// Providers supported for the completion endpoint.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the service configuration. It is read once at startup and
// treated as immutable.
type Config struct {
	Port     string
	Provider string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string

	Models buddy.Models

	// DBPath enables the SQLite usage log when set.
	DBPath string

	RateLimitPerMinute int
}

// LoadEnvFile loads a .env file from the working directory if present.
// Errors are ignored since the file may not exist.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Load reads configuration from the environment. Missing required variables
// are reported together.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvString("PORT", "8080"),
		Provider:           strings.ToLower(getEnvString("BUDDY_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		DBPath:             os.Getenv("BUDDY_DB_PATH"),
		RateLimitPerMinute: getEnvInt("BUDDY_RATE_LIMIT_PER_MINUTE", 60),
	}

	var missing []string
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		cfg.Models = buddy.Models{
			Analyze: getEnvString("BUDDY_ANALYZE_MODEL", "gpt-4o"),
			Listing: getEnvString("BUDDY_LISTING_MODEL", "gpt-4o"),
			// Price suggestion runs on the cheaper tier.
			Price: getEnvString("BUDDY_PRICE_MODEL", "gpt-4o-mini"),
			Plan:  getEnvString("BUDDY_PLAN_MODEL", "gpt-4o"),
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
		cfg.Models = buddy.Models{
			Analyze: getEnvString("BUDDY_ANALYZE_MODEL", "gemini-2.5-flash"),
			Listing: getEnvString("BUDDY_LISTING_MODEL", "gemini-2.5-flash"),
			Price:   getEnvString("BUDDY_PRICE_MODEL", "gemini-2.5-flash-lite"),
			Plan:    getEnvString("BUDDY_PLAN_MODEL", "gemini-2.5-flash"),
		}
	default:
		return nil, fmt.Errorf("unknown BUDDY_PROVIDER %q (supported: openai, gemini)", cfg.Provider)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
