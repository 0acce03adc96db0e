package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
)

type Config struct {
	Secret        string // Required: session secret, keys for cookies are derived from it
	BaseURL       string // Required: public base URL of this server
	ClientID      string // Required: login client id
	ClientSecret  string // Required: login client secret
	IssuerBaseURL string // Required: provider issuer

	MgmtClientID     string // Required: management API client id
	MgmtClientSecret string // Required: management API client secret
	MgmtAudience     string // Optional: management API audience (default: {issuer}/api/v2/)

	ExcludedAppMarkers []string // Optional: name substrings hiding an application (default: service.DefaultExcludedMarkers)
	ExcludedClientIDs  []string // Optional: client ids hiding an application

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./portal.db)
	Env                  string        // Environment (dev, staging, production) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3000)
	SessionTTL           time.Duration // Session lifetime (default: 24h)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	HTTPClientTimeout    time.Duration // Timeout for calls to the provider (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Secret:        os.Getenv("AUTH0_SECRET"),
		BaseURL:       os.Getenv("AUTH0_BASE_URL"),
		ClientID:      os.Getenv("AUTH0_CLIENT_ID"),
		ClientSecret:  os.Getenv("AUTH0_CLIENT_SECRET"),
		IssuerBaseURL: os.Getenv("AUTH0_ISSUER_BASE_URL"),

		MgmtClientID:     os.Getenv("AUTH0_MGMT_CLIENT_ID"),
		MgmtClientSecret: os.Getenv("AUTH0_MGMT_CLIENT_SECRET"),
		MgmtAudience:     os.Getenv("AUTH0_MGMT_AUDIENCE"),

		ExcludedAppMarkers: getEnvListOrDefault("EXCLUDED_APP_MARKERS", nil),
		ExcludedClientIDs:  getEnvListOrDefault("EXCLUDED_CLIENT_IDS", nil),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "portal.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3000),
		SessionTTL:           getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		HTTPClientTimeout:    getEnvDurationOrDefault("HTTP_CLIENT_TIMEOUT", 10*time.Second),
	}
}

// Validate reports every missing required variable at once.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"AUTH0_SECRET", c.Secret},
		{"AUTH0_BASE_URL", c.BaseURL},
		{"AUTH0_CLIENT_ID", c.ClientID},
		{"AUTH0_CLIENT_SECRET", c.ClientSecret},
		{"AUTH0_ISSUER_BASE_URL", c.IssuerBaseURL},
		{"AUTH0_MGMT_CLIENT_ID", c.MgmtClientID},
		{"AUTH0_MGMT_CLIENT_SECRET", c.MgmtClientSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if len(c.Secret) < cryptox.MinSecretLength {
		return fmt.Errorf("AUTH0_SECRET must be at least %d characters", cryptox.MinSecretLength)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// SecureCookies reports whether cookies must carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.Env == "production"
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
