package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile     string // Optional: path to SQLite database file (default: ./soundvault.db)
	PepperFile       string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	UploadsRoot      string // Staging root; each user gets a directory under it (default: ./uploads)
	SoundsRoot       string // Canonical storage root for ingested sounds (default: ./sounds)
	SessionSecret    string // Required in prod: HMAC secret for session cookies
	TemplateVariant  string // Authorization page variant (full, minimal) (default: full)
	DebugErrorDetail bool   // Include failure detail in server error responses (default: false)

	AccessTokenTTL       time.Duration // Access token lifetime (default: 24h)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		DatabaseFile:     getEnvOrDefault("API_DATABASE_FILE", "soundvault.db"),
		PepperFile:       getEnvOrDefault("API_PEPPER_FILE", "pepper"),
		UploadsRoot:      getEnvOrDefault("API_UPLOADS_ROOT", "uploads"),
		SoundsRoot:       getEnvOrDefault("API_SOUNDS_ROOT", "sounds"),
		SessionSecret:    os.Getenv("API_SESSION_SECRET"),
		TemplateVariant:  getEnvOrDefault("API_TEMPLATE_VARIANT", "full"),
		DebugErrorDetail: getEnvBoolOrDefault("API_DEBUG_ERROR_DETAIL", false),

		AccessTokenTTL:       getEnvDurationOrDefault("API_ACCESS_TOKEN_TTL", 24*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
