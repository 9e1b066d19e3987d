package conf

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment
// variables.
type Config struct {
	// HTTP listen address for the message intake API.
	ListenAddr string

	// Store
	StorePath string

	// LLM backend
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float32
	LLMMaxTokens   int

	// Order backend
	OrderAPIURL   string
	OrderAPIToken string

	// Stock backend
	StockAPIURL   string
	StockAPIToken string

	// Outbound reply webhook
	ReplyWebhookURL   string
	ReplyWebhookToken string

	// Prompt overrides
	PromptsPath string

	// Logging
	LogLevel string

	// Timing knobs
	BufferQuietTime time.Duration
	BufferMaxStalls int
	SessionTTL      time.Duration
	ModificationTTL time.Duration
	CooldownTTL     time.Duration
	CleanupInterval time.Duration
}

// Load reads configuration from the environment, applying defaults
// for everything optional. The bridge additionally requires
// LLM_API_KEY, checked at startup.
func Load() (*Config, error) {
	c := &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		StorePath:         getEnv("STORE_PATH", "./order-bridge.db"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:    float32(getEnvFloat("LLM_TEMPERATURE", 0.3)),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 1024),
		OrderAPIURL:       getEnv("ORDER_API_URL", "http://localhost:8000"),
		OrderAPIToken:     os.Getenv("ORDER_API_TOKEN"),
		StockAPIURL:       getEnv("STOCK_API_URL", "http://localhost:8000"),
		StockAPIToken:     os.Getenv("STOCK_API_TOKEN"),
		ReplyWebhookURL:   os.Getenv("REPLY_WEBHOOK_URL"),
		ReplyWebhookToken: os.Getenv("REPLY_WEBHOOK_TOKEN"),
		PromptsPath:       getEnv("PROMPTS_PATH", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BufferQuietTime:   getEnvDuration("BUFFER_QUIET_TIME", 5*time.Second),
		BufferMaxStalls:   getEnvInt("BUFFER_MAX_STALLS", 3),
		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		ModificationTTL:   getEnvDuration("MODIFICATION_TTL", 15*time.Minute),
		CooldownTTL:       getEnvDuration("COOLDOWN_TTL", 40*time.Minute),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute),
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
