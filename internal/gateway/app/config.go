package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/sessiongate/internal/gateway/domain"
)

type Config struct {
	ProvidersFile string // Required: path to the provider configuration YAML

	StoreDriver  string        // Optional: session store driver (memory, sqlite, redis) (default: memory)
	DatabaseFile string        // Optional: SQLite database file for the sqlite driver (default: ./sessions.db)
	RedisAddr    string        // Optional: redis address for the redis driver (default: localhost:6379)
	RedisPass    string        // Optional: redis password
	RedisDB      int           // Optional: redis database number (default: 0)
	SessionTTL   time.Duration // Optional: redis session expiry (default: 24h)

	BasePath          string // Optional: mount path for all gateway routes (default: "")
	ErrorRedirectURL  string // Optional: where failed login flows send the browser (default: /)
	CookieName        string // Optional: session cookie name (default: sessiongate_session)
	CookieSecure      bool   // Optional: set the Secure flag on the session cookie (default: false)
	LogoutTokenHeader string // Optional: header carrying the logout notification secret

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		ProvidersFile: getEnvOrDefault("GATEWAY_PROVIDERS_FILE", "providers.yaml"),

		StoreDriver:  getEnvOrDefault("GATEWAY_STORE_DRIVER", "memory"),
		DatabaseFile: getEnvOrDefault("GATEWAY_DATABASE_FILE", "sessions.db"),
		RedisAddr:    getEnvOrDefault("GATEWAY_REDIS_ADDR", "localhost:6379"),
		RedisPass:    os.Getenv("GATEWAY_REDIS_PASSWORD"),
		RedisDB:      getEnvIntOrDefault("GATEWAY_REDIS_DB", 0),
		SessionTTL:   getEnvDurationOrDefault("GATEWAY_SESSION_TTL", 24*time.Hour),

		BasePath:          os.Getenv("GATEWAY_BASE_PATH"),
		ErrorRedirectURL:  os.Getenv("GATEWAY_ERROR_REDIRECT_URL"),
		CookieName:        os.Getenv("GATEWAY_COOKIE_NAME"),
		CookieSecure:      getEnvBoolOrDefault("GATEWAY_COOKIE_SECURE", false),
		LogoutTokenHeader: os.Getenv("GATEWAY_LOGOUT_TOKEN_HEADER"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// LoadProviders reads the provider configuration file. The file holds a
// top-level `providers` list so operators can keep unrelated settings in
// the same document later on.
func LoadProviders(path string) ([]domain.ProviderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider config: %w", err)
	}

	var doc struct {
		Providers []domain.ProviderConfig `yaml:"providers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse provider config: %w", err)
	}
	if len(doc.Providers) == 0 {
		return nil, fmt.Errorf("provider config %s declares no providers", path)
	}

	return doc.Providers, nil
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

	// Plain integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
