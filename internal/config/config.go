// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkordes/eld-logbook/internal/hos"
	"github.com/pkordes/eld-logbook/internal/routing"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB; 0 disables the cap.
	MaxBodyBytes int64

	// ORSAPIKey enables OpenRouteService routing when set. Trips are stored
	// without distance or duration when it is empty.
	ORSAPIKey string
	// ORSBaseURL defaults to the public OpenRouteService endpoint.
	ORSBaseURL string
	// ORSProfile is the directions profile, "driving-hgv" by default.
	ORSProfile string
	// ORSRequestsPerMinute throttles outbound ORS calls. Defaults to 40.
	ORSRequestsPerMinute int

	// AMQPURL enables publishing of log events when set.
	AMQPURL string
	// AMQPExchange is the topic exchange events are published to. Defaults to "eld".
	AMQPExchange string

	// TimestampMode selects how segment start times are assigned.
	TimestampMode hos.TimestampMode
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first optional variable holding an unusable value.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ORSAPIKey:    os.Getenv("ORS_API_KEY"),
		ORSBaseURL:   getEnv("ORS_BASE_URL", routing.DefaultBaseURL),
		ORSProfile:   getEnv("ORS_PROFILE", routing.DefaultProfile),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "eld"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.MaxBodyBytes < 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must not be negative, got %d", cfg.MaxBodyBytes)
	}

	rpm, err := getInt64("ORS_REQUESTS_PER_MINUTE", 40)
	if err != nil {
		return Config{}, err
	}
	if rpm < 1 {
		return Config{}, fmt.Errorf("ORS_REQUESTS_PER_MINUTE must be positive, got %d", rpm)
	}
	cfg.ORSRequestsPerMinute = int(rpm)

	if cfg.TimestampMode, err = hos.ParseTimestampMode(os.Getenv("HOS_TIMESTAMP_MODE")); err != nil {
		return Config{}, fmt.Errorf("HOS_TIMESTAMP_MODE: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
