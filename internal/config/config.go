package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Slot grid. Business hours come from the backing business profile
	// in production; these act as the fallback grid definition.
	SlotIntervalMinutes int
	BusinessDayStart    string // "HH:MM", local to the business
	BusinessDayEnd      string // "HH:MM"

	// Write-path serialization.
	ScheduleLockTTL time.Duration

	// Live-update channel.
	LiveSendBuffer int

	// External collaborators.
	CatalogBaseURL     string
	OrdersBaseURL      string
	CollaboratorAPIKey string
	HTTPClientTimeout  time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SlotIntervalMinutes: getEnvAsInt("SLOT_INTERVAL_MINUTES", 30),
		BusinessDayStart:    getEnv("BUSINESS_DAY_START", "09:00"),
		BusinessDayEnd:      getEnv("BUSINESS_DAY_END", "18:00"),

		ScheduleLockTTL: getEnvAsDuration("SCHEDULE_LOCK_TTL", 10*time.Second),

		LiveSendBuffer: getEnvAsInt("LIVE_SEND_BUFFER", 16),

		CatalogBaseURL:     getEnv("CATALOG_BASE_URL", ""),
		OrdersBaseURL:      getEnv("ORDERS_BASE_URL", ""),
		CollaboratorAPIKey: getEnv("COLLABORATOR_API_KEY", ""),
		HTTPClientTimeout:  getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 20*time.Second),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
