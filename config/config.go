package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the damage analyze service.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins string

	// LLM provider selection: "openai", "gemini" or "stub"
	LLMProvider string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string

	// Image intake limits
	MaxImageSize      int64
	AllowedExtensions map[string]bool

	// RabbitMQ configuration (optional result publishing)
	AMQPURL            string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. A .env file in
// the working directory is picked up if present.
func Load() *Config {
	godotenv.Load()

	config := &Config{
		// Server defaults
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		// LLM defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		// Intake defaults
		MaxImageSize:      getInt64Env("MAX_IMAGE_SIZE", 10*1024*1024),
		AllowedExtensions: parseExtensions(getEnv("ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.webp")),

		// RabbitMQ defaults (publishing disabled when AMQP_URL is empty)
		AMQPURL:            getEnv("AMQP_URL", ""),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "damage_analysis"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "analysis.completed"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// Validate checks that required configuration is present for the
// selected LLM provider.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case "stub":
		// No credentials needed.
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (expected openai, gemini or stub)", c.LLMProvider)
	}
	return nil
}

// Model returns the model identifier for the selected provider.
func (c *Config) Model() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiModel
	case "stub":
		return "stub"
	default:
		return c.OpenAIModel
	}
}

// APIConfigured reports whether the selected provider has a credential.
func (c *Config) APIConfigured() bool {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiAPIKey != ""
	case "stub":
		return true
	default:
		return c.OpenAIAPIKey != ""
	}
}

// ExtensionList returns the allowed extensions as a sorted, comma
// separated string suitable for error messages.
func (c *Config) ExtensionList() string {
	exts := make([]string, 0, len(c.AllowedExtensions))
	for ext := range c.AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

func parseExtensions(value string) map[string]bool {
	exts := make(map[string]bool)
	for _, ext := range strings.Split(value, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return exts
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt64Env gets an int64 environment variable or returns a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
