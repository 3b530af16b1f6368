package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	AllowedOrigins   []string
	OpenAIKey        string
	AIProvider       string
	AIModel          string
	AIBaseURL        string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string

	ZoomClientID     string
	ZoomClientSecret string
	ZoomAccountID    string

	DefaultCalendar        string
	DefaultDurationMinutes int
	DefaultStartTime       string
	LocalTimezone          string
	// TZAbbrOverrides repoints timezone abbreviations, e.g.
	// "CST=Asia/Shanghai,IST=Europe/Dublin".
	TZAbbrOverrides map[string]string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ZoomClientID:     getEnv("ZOOM_CLIENT_ID", ""),
		ZoomClientSecret: getEnv("ZOOM_CLIENT_SECRET", ""),
		ZoomAccountID:    getEnv("ZOOM_ACCOUNT_ID", ""),

		DefaultCalendar:        getEnv("DEFAULT_CALENDAR", "Calendar"),
		DefaultDurationMinutes: getEnvInt("DEFAULT_DURATION_MINUTES", 60),
		DefaultStartTime:       getEnv("DEFAULT_START_TIME", "09:00"),
		LocalTimezone:          getEnv("LOCAL_TIMEZONE", "UTC"),
		TZAbbrOverrides:        getEnvMap("TZ_ABBR_OVERRIDES"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (async parsing requires RabbitMQ)")
	}

	if cfg.DefaultDurationMinutes < 1 {
		return nil, fmt.Errorf("DEFAULT_DURATION_MINUTES must be positive, got %d", cfg.DefaultDurationMinutes)
	}

	return cfg, nil
}

// ZoomConfigured reports whether Zoom meeting creation is usable
func (c *Config) ZoomConfigured() bool {
	return c.ZoomClientID != "" && c.ZoomClientSecret != "" && c.ZoomAccountID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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

func getEnvList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnvMap parses "KEY=value,KEY2=value2" pairs; malformed entries are
// skipped rather than failing startup.
func getEnvMap(key string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
